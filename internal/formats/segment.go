package formats

import (
	"regexp"
	"strconv"
)

// Block is the raw text span belonging to one question marker, prior to
// structural extraction.
type Block struct {
	Number int
	Body   string
}

// Segment splits document text into per-question blocks using a marker
// pattern whose first capture group is the question number. A block runs
// from just after its marker to just before the next one (or end of text).
//
// Numbers need not be contiguous, and duplicate numbers are preserved as
// separate blocks; reconciling duplicates is the importer's job. A marker
// with nothing after it yields an empty body, which downstream extraction
// rejects with a warning.
func Segment(text string, marker *regexp.Regexp) []Block {
	locs := marker.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	blocks := make([]Block, 0, len(locs))
	for i, loc := range locs {
		n, err := strconv.Atoi(text[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		blocks = append(blocks, Block{Number: n, Body: text[loc[1]:end]})
	}
	return blocks
}
