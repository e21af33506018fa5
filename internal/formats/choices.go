package formats

import (
	"regexp"
	"strings"

	"github.com/fexa-archive/fexa/internal/exam"
)

// Line-prefixed choices in Markdown transcriptions: "- ア. 3" / "- イ、4".
var listChoicePattern = regexp.MustCompile(`(?m)^-\s*([アイウエ])[、．.\s]\s*(.+)`)

var tableSeparatorPattern = regexp.MustCompile(`^\|[\s:|-]+\|?$`)

// ExtractChoices pulls the choice set out of one question block. The list
// strategy is tried first; the table strategy only when the list finds
// nothing. The two outputs are never mixed. textEnd is the byte offset
// where the choice section starts, so the caller can take body[:textEnd]
// as the question text. When no choices are found at all, drafts is nil
// and textEnd is len(body).
func ExtractChoices(body string) (drafts []ChoiceDraft, tableMarkdown string, textEnd int) {
	if locs := listChoicePattern.FindAllStringSubmatchIndex(body, -1); len(locs) > 0 {
		for _, loc := range locs {
			text := strings.TrimSpace(body[loc[4]:loc[5]])
			drafts = append(drafts, ListChoice{
				Option: body[loc[2]:loc[3]],
				Text:   text,
				Images: ExtractImages(text),
			})
		}
		return drafts, "", locs[0][0]
	}
	return extractTableChoices(body)
}

// extractTableChoices recognizes a Markdown pipe table whose body rows are
// labelled ア/イ/ウ/エ in the first column. The header row is shared across
// the drafts; each body row becomes one TableChoice carrying the full row
// and a synthesized "header=cell, ..." summary over the non-label columns.
func extractTableChoices(body string) (drafts []ChoiceDraft, tableMarkdown string, textEnd int) {
	lines := strings.Split(body, "\n")

	start := -1
	var headers []string
	offset := 0
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "|") && i+1 < len(lines) &&
			tableSeparatorPattern.MatchString(strings.TrimSpace(lines[i+1])) {
			start = i
			headers = splitTableRow(trimmed)
			break
		}
		offset += len(line) + 1
	}
	if start < 0 || len(headers) == 0 {
		return nil, "", len(body)
	}

	end := start + 2
	var tableLines []string
	tableLines = append(tableLines, strings.TrimSpace(lines[start]), strings.TrimSpace(lines[start+1]))
	for _, line := range lines[start+2:] {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "|") {
			break
		}
		tableLines = append(tableLines, trimmed)
		end++

		cells := splitTableRow(trimmed)
		if len(cells) == 0 || !exam.IsValidLabel(cells[0]) {
			continue
		}
		drafts = append(drafts, TableChoice{
			Option:  cells[0],
			Headers: headers,
			Row:     cells,
			Summary: summarizeRow(headers, cells),
		})
	}
	if len(drafts) == 0 {
		// A table without labelled rows is not a choice set.
		return nil, "", len(body)
	}
	return drafts, strings.Join(tableLines, "\n"), offset
}

func splitTableRow(line string) []string {
	line = strings.Trim(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, strings.TrimSpace(p))
	}
	return cells
}

// summarizeRow renders "header=cell, ..." for the columns after the label.
func summarizeRow(headers, cells []string) string {
	var parts []string
	for i := 1; i < len(cells) && i < len(headers); i++ {
		parts = append(parts, headers[i]+"="+cells[i])
	}
	if len(parts) == 0 {
		return strings.Join(cells, " ")
	}
	return strings.Join(parts, ", ")
}
