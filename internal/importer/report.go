package importer

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fexa-archive/fexa/internal/exam"
	"github.com/fexa-archive/fexa/internal/formats"
)

// QuestionError is one per-question failure, in batch order.
type QuestionError struct {
	Number  int    `json:"question_number"`
	Message string `json:"error"`
}

// Report is the final accounting of a run. Statistics are folded here by
// the single orchestrating goroutine; nothing else mutates them.
type Report struct {
	Exam exam.Exam

	Total        int
	New          int
	Reregistered int
	Skipped      int
	Failed       int
	TotalImages  int

	Errors        []QuestionError
	Warnings      []formats.Warning
	MissingImages []formats.MissingImage

	StartedAt  time.Time
	FinishedAt time.Time
}

// Status mirrors the import_history convention of the original tooling.
func (r *Report) Status() string {
	if r.Failed > 0 {
		return "partial_success"
	}
	return "success"
}

// Summary renders the operator-facing final report. All warnings emitted
// progressively during the run reappear here.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "exam %d %s (id %d)\n", r.Exam.Year, r.Exam.Season, r.Exam.ID)
	fmt.Fprintf(&b, "total: %d  new: %d  reregistered: %d  skipped: %d  failed: %d\n",
		r.Total, r.New, r.Reregistered, r.Skipped, r.Failed)
	fmt.Fprintf(&b, "images: %d  duration: %s\n", r.TotalImages, r.FinishedAt.Sub(r.StartedAt).Round(time.Second))
	if len(r.Warnings) > 0 {
		fmt.Fprintf(&b, "dropped questions:\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "  - 問%d: %s\n", w.Number, w.Message)
		}
	}
	if len(r.MissingImages) > 0 {
		fmt.Fprintf(&b, "missing image files:\n")
		for _, mi := range r.MissingImages {
			where := fmt.Sprintf("問%d", mi.QuestionNumber)
			if mi.ChoiceLabel != "" {
				where += " 選択肢" + mi.ChoiceLabel
			}
			fmt.Fprintf(&b, "  - %s (%s)\n", mi.Filename, where)
		}
	}
	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, "errors:\n")
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "  - 問%d: %s\n", e.Number, e.Message)
		}
	}
	return b.String()
}

func (r *Report) importRun(sourcePath string) *exam.ImportRun {
	run := &exam.ImportRun{
		ExamID:       r.Exam.ID,
		SourceFile:   filepath.Base(sourcePath),
		New:          r.New,
		Reregistered: r.Reregistered,
		Skipped:      r.Skipped,
		Failed:       r.Failed,
		TotalImages:  r.TotalImages,
		Status:       r.Status(),
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
	}
	if len(r.Errors) > 0 {
		if b, err := json.Marshal(r.Errors); err == nil {
			run.ErrorLog = string(b)
		}
	}
	return run
}
