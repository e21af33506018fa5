// Package pdf parses the official exam paper PDFs. Text is extracted page
// by page and then walked line-wise: 問N markers open questions, ア/イ/ウ/エ
// prefixed lines are choices, and page-number artifacts are discarded.
package pdf

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/fexa-archive/fexa/internal/formats"
)

func init() {
	formats.Register("pdf", New())
}

var (
	questionNumberPattern = regexp.MustCompile(`問\s*(\d+)`)
	choiceLinePattern     = regexp.MustCompile(`^([アイウエ])\s+(.+)`)
	pageBreakPattern      = regexp.MustCompile(`－\s*\d+\s*－`)
	whitespacePattern     = regexp.MustCompile(`\s+`)
)

type Parser struct{}

func New() *Parser { return &Parser{} }

func (p *Parser) Parse(ctx context.Context, src formats.Source) (*formats.Paper, error) {
	text, pages, err := ExtractText(src.Data)
	if err != nil {
		return nil, err
	}

	info, err := formats.ResolveExamInfo(src, text)
	if err != nil {
		return nil, err
	}

	qtype := src.OverrideType
	if qtype == "" {
		qtype = formats.DetectQuestionType(text)
	}

	paper := &formats.Paper{Info: info, Type: qtype, PageCount: pages}
	parseQuestions(text, paper)
	return paper, nil
}

// parseQuestions is a single pass over the extracted lines. A question's
// text runs from its 問N marker until the first choice line; everything
// after the choices up to the next marker belongs to figures or answer
// sheets and is ignored, matching how the paper is laid out.
func parseQuestions(text string, paper *formats.Paper) {
	var (
		number  int
		body    []string
		choices []formats.ChoiceDraft
		open    bool
	)

	flush := func() {
		if !open {
			return
		}
		q := formats.QuestionDraft{
			Number:  number,
			Text:    cleanText(strings.Join(body, " ")),
			Choices: choices,
		}
		switch {
		case q.Text == "":
			paper.Warnings = append(paper.Warnings, formats.Warning{Number: number, Message: "empty question text"})
		case len(choices) == 0:
			paper.Warnings = append(paper.Warnings, formats.Warning{Number: number, Message: "no choices found"})
		default:
			paper.Questions = append(paper.Questions, q)
		}
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || pageBreakPattern.FindString(line) == line {
			continue
		}

		if m := questionNumberPattern.FindStringSubmatchIndex(line); m != nil {
			flush()
			number, _ = strconv.Atoi(line[m[2]:m[3]])
			body = body[:0]
			choices = nil
			open = true
			if after := strings.TrimSpace(line[m[1]:]); after != "" {
				body = append(body, after)
			}
			continue
		}
		if !open {
			continue
		}

		if m := choiceLinePattern.FindStringSubmatch(line); m != nil {
			choices = append(choices, formats.ListChoice{
				Option: m[1],
				Text:   cleanText(m[2]),
			})
			continue
		}

		// Question text continues only until the first choice shows up.
		if len(choices) == 0 {
			body = append(body, line)
		}
	}
	flush()
}

func cleanText(s string) string {
	s = pageBreakPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}
