// Package markdown parses hand-transcribed exam papers: one "## 問N"
// heading per question, "- ア."-style choice lists or pipe-table choice
// sets, and ./images/ references for figures.
package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/fexa-archive/fexa/internal/formats"
)

func init() {
	formats.Register("markdown", New())
}

var questionPattern = regexp.MustCompile(`(?m)^##\s*問\s*(\d+)`)

type Parser struct{}

func New() *Parser { return &Parser{} }

func (p *Parser) Parse(ctx context.Context, src formats.Source) (*formats.Paper, error) {
	content := string(src.Data)

	info, err := formats.ResolveExamInfo(src, content)
	if err != nil {
		return nil, err
	}

	qtype := src.OverrideType
	if qtype == "" {
		qtype = formats.DetectQuestionType(content)
	}

	paper := &formats.Paper{Info: info, Type: qtype}
	for _, block := range formats.Segment(content, questionPattern) {
		q, warn := parseBlock(block)
		if warn != nil {
			paper.Warnings = append(paper.Warnings, *warn)
			continue
		}
		paper.Questions = append(paper.Questions, *q)
	}
	return paper, nil
}

// parseBlock extracts one question from its block. A block without choices
// or without question text is dropped with a warning, never an error; one
// malformed question must not abort a batch of hundreds.
func parseBlock(b formats.Block) (*formats.QuestionDraft, *formats.Warning) {
	drafts, tableMarkdown, textEnd := formats.ExtractChoices(b.Body)
	if len(drafts) == 0 {
		return nil, &formats.Warning{Number: b.Number, Message: "no choices found"}
	}

	text := strings.TrimSpace(b.Body[:textEnd])
	if text == "" {
		return nil, &formats.Warning{Number: b.Number, Message: "empty question text"}
	}

	return &formats.QuestionDraft{
		Number:        b.Number,
		Text:          text,
		Choices:       drafts,
		Images:        formats.ExtractImages(text),
		TableMarkdown: tableMarkdown,
	}, nil
}
