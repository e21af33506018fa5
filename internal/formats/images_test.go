package formats

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractImages(t *testing.T) {
	text := "図を参照。![回路図](./images/fig1.png) と ![](./images/fig2.png)"
	refs := ExtractImages(text)
	require.Len(t, refs, 2)
	assert.Equal(t, ImageRef{Filename: "fig1.png", AltText: "回路図"}, refs[0])
	assert.Equal(t, ImageRef{Filename: "fig2.png", AltText: ""}, refs[1])
}

func TestExtractImagesIgnoresOtherPaths(t *testing.T) {
	assert.Nil(t, ExtractImages("![x](https://example.com/x.png) plain text"))
}

func TestValidateImageFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "images"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "images", "ok.png"), []byte("png"), 0o644))

	questions := []QuestionDraft{
		{
			Number: 1,
			Images: []ImageRef{{Filename: "ok.png"}, {Filename: "gone.png", AltText: "消えた図"}},
			Choices: []ChoiceDraft{
				ListChoice{Option: "ア", Text: "x", Images: []ImageRef{{Filename: "choice.png"}}},
				TableChoice{Option: "イ"},
			},
		},
	}

	missing := ValidateImageFiles(questions, filepath.Join(dir, "text-data.md"))
	require.Len(t, missing, 2)
	assert.Equal(t, "gone.png", missing[0].Filename)
	assert.Empty(t, missing[0].ChoiceLabel)
	assert.Equal(t, "choice.png", missing[1].Filename)
	assert.Equal(t, "ア", missing[1].ChoiceLabel)
}
