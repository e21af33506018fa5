package exam

import "strings"

// DisplayType tells the frontend how to render a choice.
type DisplayType string

const (
	DisplayText  DisplayType = "text"
	DisplayTable DisplayType = "table"
	DisplayImage DisplayType = "image"
)

// DisplayChoice is a Choice annotated for rendering.
type DisplayChoice struct {
	Choice
	DisplayType DisplayType `json:"display_type"`
}

// FormatChoices annotates choices for the API response. Table format wins
// over image: a table row that references an image is still a table.
func FormatChoices(cs []Choice) []DisplayChoice {
	out := make([]DisplayChoice, 0, len(cs))
	for _, c := range cs {
		d := DisplayChoice{Choice: c, DisplayType: DisplayText}
		switch {
		case c.IsTableFormat && len(c.TableHeaders) > 0 && len(c.TableData) > 0:
			d.DisplayType = DisplayTable
		case c.HasImage:
			d.DisplayType = DisplayImage
		}
		out = append(out, d)
	}
	return out
}

// ChoicesToMarkdownTable rebuilds a Markdown pipe table from table-form
// choice rows. Returns "" when the question has no table choices.
func ChoicesToMarkdownTable(cs []Choice) string {
	var rows []Choice
	for _, c := range cs {
		if c.IsTableFormat && len(c.TableData) > 0 {
			rows = append(rows, c)
		}
	}
	if len(rows) == 0 {
		return ""
	}

	headers := rows[0].TableHeaders
	var b strings.Builder
	b.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat("---|", len(headers)) + "\n")
	for _, c := range rows {
		b.WriteString("| " + strings.Join(c.TableData, " | ") + " |\n")
	}
	return b.String()
}
