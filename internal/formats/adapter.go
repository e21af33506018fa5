package formats

import (
	"context"

	"github.com/fexa-archive/fexa/internal/exam"
)

// Parser turns one source document (Markdown transcription or PDF) into a
// Paper of question drafts. Parsing never touches the store; the importer
// reconciles the drafts afterwards.
type Parser interface {
	Parse(ctx context.Context, src Source) (*Paper, error)
}

// Source is one document handed to a parser. Overrides, when set, win over
// anything inferred from the path or the text.
type Source struct {
	Path string // original file path; exam identity may come from the directory name
	Data []byte

	OverrideYear   int
	OverrideSeason exam.Season
	OverrideType   exam.QuestionType
}

// ExamInfo is the resolved identity of the sitting a document belongs to.
type ExamInfo struct {
	Year   int
	Season exam.Season
}

// Paper is the parse result for one document.
type Paper struct {
	Info      ExamInfo
	Type      exam.QuestionType
	Questions []QuestionDraft
	Warnings  []Warning
	PageCount int // PDF sources only
}

// QuestionDraft is one extracted question prior to persistence.
type QuestionDraft struct {
	Number  int
	Text    string
	Choices []ChoiceDraft
	Images  []ImageRef // references found in the question text

	// TableMarkdown holds the source pipe table when the choices are
	// table-form, for storage alongside the question.
	TableMarkdown string
}

// ChoiceDraft is either a ListChoice or a TableChoice, never a mix within
// one question. The persistence boundary switches exhaustively on the
// concrete type.
type ChoiceDraft interface {
	ChoiceLabel() string
	choiceDraft()
}

// ListChoice is a line-prefixed option ("- ア. 3").
type ListChoice struct {
	Option string
	Text   string
	Images []ImageRef
}

func (c ListChoice) ChoiceLabel() string { return c.Option }
func (ListChoice) choiceDraft()          {}

// TableChoice is one body row of a pipe-table choice set. Row includes the
// label cell; Summary is a "header=cell, ..." rendering for clients without
// a table renderer.
type TableChoice struct {
	Option  string
	Headers []string
	Row     []string
	Summary string
}

func (c TableChoice) ChoiceLabel() string { return c.Option }
func (TableChoice) choiceDraft()          {}

// ImageRef is an embedded image reference found in question or choice text.
type ImageRef struct {
	Filename string
	AltText  string
}

// Warning is a non-fatal per-question parse problem (empty text, no
// choices). The block is dropped but the batch continues.
type Warning struct {
	Number  int
	Message string
}

// Registry of parsers by source kind ("markdown", "pdf").
var registry = map[string]Parser{}

// Register a parser. Call from init() in subpackages.
func Register(kind string, p Parser) { registry[kind] = p }

// Lookup returns a registered parser for a source kind.
func Lookup(kind string) (Parser, bool) { p, ok := registry[kind]; return p, ok }
