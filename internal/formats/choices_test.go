package formats

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractListChoices(t *testing.T) {
	body := "\nWhat is 2+2?\n- ア. 3\n- イ. 4\n- ウ. 5\n- エ. 6\n"
	drafts, tableMarkdown, textEnd := ExtractChoices(body)
	require.Len(t, drafts, 4)
	assert.Empty(t, tableMarkdown)
	assert.Equal(t, "What is 2+2?", strings.TrimSpace(body[:textEnd]))

	want := []struct{ label, text string }{
		{"ア", "3"}, {"イ", "4"}, {"ウ", "5"}, {"エ", "6"},
	}
	for i, w := range want {
		lc, ok := drafts[i].(ListChoice)
		require.True(t, ok, "draft %d should be list form", i)
		assert.Equal(t, w.label, lc.Option)
		assert.Equal(t, w.text, lc.Text)
	}
}

func TestExtractListChoicesJapaneseComma(t *testing.T) {
	drafts, _, _ := ExtractChoices("本文\n- ア、スタック\n- イ、キュー\n")
	require.Len(t, drafts, 2)
	assert.Equal(t, "スタック", drafts[0].(ListChoice).Text)
}

const tableBody = `
次の構成のうち適切なものはどれか。

| 選択肢 | CPU | メモリ |
|---|---|---|
| ア | 1.2GHz | 512MB |
| イ | 2.4GHz | 1GB |
| ウ | 3.0GHz | 2GB |
| エ | 3.2GHz | 4GB |
`

func TestExtractTableChoices(t *testing.T) {
	drafts, tableMarkdown, textEnd := ExtractChoices(tableBody)
	require.Len(t, drafts, 4)
	assert.Equal(t, "次の構成のうち適切なものはどれか。", strings.TrimSpace(tableBody[:textEnd]))
	assert.True(t, strings.HasPrefix(tableMarkdown, "| 選択肢 | CPU | メモリ |"))
	assert.Equal(t, 6, len(strings.Split(tableMarkdown, "\n")))

	tc, ok := drafts[0].(TableChoice)
	require.True(t, ok)
	assert.Equal(t, "ア", tc.Option)
	assert.Equal(t, []string{"選択肢", "CPU", "メモリ"}, tc.Headers)
	assert.Equal(t, []string{"ア", "1.2GHz", "512MB"}, tc.Row)
	assert.Equal(t, "CPU=1.2GHz, メモリ=512MB", tc.Summary)
}

func TestListAndTableAreExclusive(t *testing.T) {
	// A block that contains both representations must yield only list drafts.
	body := "設問\n- ア. 一\n- イ. 二\n\n| 選択肢 | 値 |\n|---|---|\n| ウ | 三 |\n"
	drafts, tableMarkdown, _ := ExtractChoices(body)
	require.Len(t, drafts, 2)
	assert.Empty(t, tableMarkdown)
	for _, d := range drafts {
		_, isList := d.(ListChoice)
		assert.True(t, isList)
	}
}

func TestTableWithoutLabelsIsNotAChoiceSet(t *testing.T) {
	body := "設問\n| 項目 | 値 |\n|---|---|\n| 速度 | 100 |\n"
	drafts, _, textEnd := ExtractChoices(body)
	assert.Nil(t, drafts)
	assert.Equal(t, len(body), textEnd)
}

func TestNoChoicesFound(t *testing.T) {
	drafts, _, textEnd := ExtractChoices("選択肢のない本文のみ。")
	assert.Nil(t, drafts)
	assert.Equal(t, len("選択肢のない本文のみ。"), textEnd)
}
