package formats

import (
	"os"
	"path/filepath"
	"regexp"
)

// Markdown image references of the transcription convention:
// ![caption](./images/filename.png)
var imagePattern = regexp.MustCompile(`!\[([^\]]*)\]\(\./images/([^)]+)\)`)

// ExtractImages finds embedded image references in question or choice text.
func ExtractImages(text string) []ImageRef {
	matches := imagePattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	refs := make([]ImageRef, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, ImageRef{Filename: m[2], AltText: m[1]})
	}
	return refs
}

// MissingImage is a referenced file absent from the images/ directory next
// to the source document. Non-fatal: the import proceeds and flags the
// question for operator follow-up.
type MissingImage struct {
	QuestionNumber int
	ChoiceLabel    string // empty for question-level images
	Filename       string
	AltText        string
}

// ValidateImageFiles checks that every image referenced by the batch exists
// under <dir(sourcePath)>/images/.
func ValidateImageFiles(questions []QuestionDraft, sourcePath string) []MissingImage {
	base := filepath.Dir(sourcePath)
	var missing []MissingImage

	exists := func(name string) bool {
		_, err := os.Stat(filepath.Join(base, "images", name))
		return err == nil
	}

	for _, q := range questions {
		for _, img := range q.Images {
			if !exists(img.Filename) {
				missing = append(missing, MissingImage{
					QuestionNumber: q.Number,
					Filename:       img.Filename,
					AltText:        img.AltText,
				})
			}
		}
		for _, c := range q.Choices {
			lc, ok := c.(ListChoice)
			if !ok {
				continue
			}
			for _, img := range lc.Images {
				if !exists(img.Filename) {
					missing = append(missing, MissingImage{
						QuestionNumber: q.Number,
						ChoiceLabel:    lc.Option,
						Filename:       img.Filename,
						AltText:        img.AltText,
					})
				}
			}
		}
	}
	return missing
}
