// Package importer is the idempotent write path of the archive: it
// reconciles parsed question drafts against the store and commits them in
// a fixed order, tolerating per-question failures.
package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fexa-archive/fexa/internal/exam"
	"github.com/fexa-archive/fexa/internal/formats"
	"github.com/fexa-archive/fexa/internal/storage"
)

type Options struct {
	// Overwrite forces replacement of existing complete questions.
	Overwrite bool
	// OnlyQuestion, when nonzero, restricts the run to one question number.
	OnlyQuestion int
	// ExpectedChoiceCount is the completeness threshold. Defaults to 4,
	// the fixed FE format.
	ExpectedChoiceCount int
}

type Orchestrator struct {
	store exam.Store
	blobs storage.BlobStore
	log   *zap.Logger
	opts  Options
}

func New(store exam.Store, blobs storage.BlobStore, log *zap.Logger, opts Options) *Orchestrator {
	if opts.ExpectedChoiceCount <= 0 {
		opts.ExpectedChoiceCount = 4
	}
	return &Orchestrator{store: store, blobs: blobs, log: log, opts: opts}
}

type outcome int

const (
	outcomeNew outcome = iota
	outcomeSkipped
	outcomeReregistered
)

// Run imports one parsed paper. Questions are processed strictly one at a
// time; a failing question is recorded and the batch continues. The only
// fatal errors are those that happen before any question is written (exam
// upsert). The returned report is the operator-facing contract of the run.
func (o *Orchestrator) Run(ctx context.Context, paper *formats.Paper, sourcePath string) (*Report, error) {
	report := &Report{StartedAt: time.Now()}

	ex, err := o.store.UpsertExam(ctx, paper.Info.Year, paper.Info.Season)
	if err != nil {
		return nil, err
	}
	report.Exam = ex
	o.log.Info("exam resolved",
		zap.Int("year", ex.Year), zap.String("season", string(ex.Season)),
		zap.Int64("exam_id", ex.ID))

	for _, w := range paper.Warnings {
		o.log.Warn("question dropped",
			zap.Int("question", w.Number), zap.String("reason", w.Message))
	}
	report.Warnings = paper.Warnings

	report.MissingImages = formats.ValidateImageFiles(paper.Questions, sourcePath)
	for _, mi := range report.MissingImages {
		o.log.Warn("referenced image file not found",
			zap.Int("question", mi.QuestionNumber),
			zap.String("choice", mi.ChoiceLabel),
			zap.String("filename", mi.Filename))
	}

	sourceDir := filepath.Dir(sourcePath)
	for _, draft := range paper.Questions {
		if o.opts.OnlyQuestion != 0 && draft.Number != o.opts.OnlyQuestion {
			continue
		}
		report.Total++

		res, images, err := o.processQuestion(ctx, ex, paper.Type, draft, sourceDir)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, QuestionError{Number: draft.Number, Message: err.Error()})
			o.log.Error("question import failed",
				zap.Int("question", draft.Number), zap.Error(err))
			continue
		}
		report.TotalImages += images
		switch res {
		case outcomeNew:
			report.New++
		case outcomeSkipped:
			report.Skipped++
			o.log.Debug("question already registered, skipped", zap.Int("question", draft.Number))
		case outcomeReregistered:
			report.Reregistered++
			o.log.Info("question re-registered", zap.Int("question", draft.Number))
		}
	}
	report.FinishedAt = time.Now()

	// Audit bookkeeping is best effort: its failure is logged, not counted.
	run := report.importRun(sourcePath)
	if err := o.store.InsertImportRun(ctx, run); err != nil {
		o.log.Warn("import run bookkeeping failed", zap.Error(err))
	}
	return report, nil
}

// processQuestion is the per-question state machine. Lookup by
// (exam, number, type), then:
//
//	no row                      -> write, counted "new"
//	complete row, no overwrite  -> skip
//	complete row, overwrite     -> delete and rewrite, counted "reregistered"
//	incomplete row              -> delete and rewrite regardless of the flag
//
// An incomplete row is the remnant of a prior partial failure and is never
// worth keeping.
func (o *Orchestrator) processQuestion(ctx context.Context, ex exam.Exam, qtype exam.QuestionType, draft formats.QuestionDraft, sourceDir string) (outcome, int, error) {
	existing, err := o.store.FindQuestion(ctx, ex.ID, draft.Number, qtype)
	if err != nil {
		return 0, 0, fmt.Errorf("lookup: %w", err)
	}

	res := outcomeNew
	if existing != nil {
		n, err := o.store.CountChoices(ctx, existing.ID)
		if err != nil {
			return 0, 0, fmt.Errorf("count choices: %w", err)
		}
		if n >= o.opts.ExpectedChoiceCount && !o.opts.Overwrite {
			return outcomeSkipped, 0, nil
		}
		if err := o.store.DeleteQuestion(ctx, existing.ID); err != nil {
			return 0, 0, fmt.Errorf("delete existing: %w", err)
		}
		res = outcomeReregistered
	}

	images, err := o.writeQuestion(ctx, ex, qtype, draft, sourceDir)
	if err != nil {
		return 0, 0, err
	}
	return res, images, nil
}

// writeQuestion commits one draft in the fixed order question row →
// choice rows → image rows; choices and images carry foreign keys to the
// question, so the order is not negotiable.
func (o *Orchestrator) writeQuestion(ctx context.Context, ex exam.Exam, qtype exam.QuestionType, draft formats.QuestionDraft, sourceDir string) (int, error) {
	q := &exam.Question{
		ExamID:   ex.ID,
		Number:   draft.Number,
		Type:     qtype,
		Text:     draft.Text,
		HasImage: len(draft.Images) > 0,
	}

	choices := make([]exam.Choice, 0, len(draft.Choices))
	choiceRefs := make([][]formats.ImageRef, 0, len(draft.Choices))
	for _, d := range draft.Choices {
		switch c := d.(type) {
		case formats.ListChoice:
			choices = append(choices, exam.Choice{
				Label:    c.Option,
				Text:     c.Text,
				HasImage: len(c.Images) > 0,
			})
			choiceRefs = append(choiceRefs, c.Images)
		case formats.TableChoice:
			q.HasChoiceTable = true
			choices = append(choices, exam.Choice{
				Label:         c.Option,
				Text:          c.Summary,
				IsTableFormat: true,
				TableHeaders:  c.Headers,
				TableData:     c.Row,
			})
			choiceRefs = append(choiceRefs, nil)
		default:
			return 0, fmt.Errorf("unhandled choice draft type %T", d)
		}
	}
	if q.HasChoiceTable {
		q.ChoiceTableFormat = exam.TableFormatMarkdown
		q.ChoiceTableMarkdown = draft.TableMarkdown
	}

	if err := o.store.InsertQuestion(ctx, q); err != nil {
		return 0, fmt.Errorf("insert question: %w", err)
	}
	for i := range choices {
		choices[i].QuestionID = q.ID
	}
	if err := o.store.InsertChoices(ctx, choices); err != nil {
		return 0, err
	}

	images := 0
	for _, ref := range draft.Images {
		key, uploaded, err := o.putBlob(sourceDir, ref, fmt.Sprintf("%d/question", q.ID))
		if err != nil {
			return images, err
		}
		img := exam.QuestionImage{
			QuestionID: q.ID,
			Filename:   ref.Filename,
			AltText:    ref.AltText,
			StorageKey: key,
			Uploaded:   uploaded,
		}
		if err := o.store.InsertQuestionImages(ctx, []exam.QuestionImage{img}); err != nil {
			o.compensate(key, uploaded)
			return images, fmt.Errorf("insert question image %s: %w", ref.Filename, err)
		}
		images++
	}
	for i, refs := range choiceRefs {
		for _, ref := range refs {
			key, uploaded, err := o.putBlob(sourceDir, ref, fmt.Sprintf("%d/%d", q.ID, choices[i].ID))
			if err != nil {
				return images, err
			}
			img := exam.ChoiceImage{
				ChoiceID:   choices[i].ID,
				Filename:   ref.Filename,
				AltText:    ref.AltText,
				StorageKey: key,
				Uploaded:   uploaded,
			}
			if err := o.store.InsertChoiceImages(ctx, []exam.ChoiceImage{img}); err != nil {
				o.compensate(key, uploaded)
				return images, fmt.Errorf("insert choice image %s: %w", ref.Filename, err)
			}
			images++
		}
	}
	return images, nil
}

// putBlob uploads images/<filename> from the source directory. A missing
// file is not an error here; the row is recorded with is_uploaded=false
// and the validation pass has already warned about it.
func (o *Orchestrator) putBlob(sourceDir string, ref formats.ImageRef, prefix string) (string, bool, error) {
	f, err := os.Open(filepath.Join(sourceDir, "images", ref.Filename))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	defer f.Close()

	key := fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), filepath.Ext(ref.Filename))
	if _, err := o.blobs.Put(key, f); err != nil {
		return "", false, fmt.Errorf("upload %s: %w", ref.Filename, err)
	}
	return key, true, nil
}

// compensate removes a blob whose metadata row failed to land, so no
// orphaned object outlives the error.
func (o *Orchestrator) compensate(key string, uploaded bool) {
	if !uploaded {
		return
	}
	if err := o.blobs.Delete(key); err != nil {
		o.log.Error("orphaned blob cleanup failed", zap.String("key", key), zap.Error(err))
	}
}
