package exam

import "context"

// Store is the relational side of the archive. The importer and the admin
// API both talk to it; SQLStore is the only production implementation.
//
// Contract points the importer relies on:
//   - UpsertExam is idempotent on (year, season).
//   - Insert* methods fill generated IDs into their arguments.
//   - DeleteQuestion cascades to choices and images (enforced by the schema,
//     not sequenced by callers).
type Store interface {
	UpsertExam(ctx context.Context, year int, season Season) (Exam, error)
	GetExam(ctx context.Context, year int, season Season) (Exam, error)
	ListExams(ctx context.Context) ([]Exam, error)

	// FindQuestion returns (nil, nil) when no row matches.
	FindQuestion(ctx context.Context, examID int64, number int, qt QuestionType) (*Question, error)
	GetQuestion(ctx context.Context, id int64) (*Question, error)
	ListQuestions(ctx context.Context, examID int64, qt QuestionType) ([]Question, error)
	InsertQuestion(ctx context.Context, q *Question) error
	DeleteQuestion(ctx context.Context, id int64) error
	SetQuestionHasImage(ctx context.Context, id int64, has bool) error

	CountChoices(ctx context.Context, questionID int64) (int, error)
	ListChoices(ctx context.Context, questionID int64) ([]Choice, error)
	InsertChoices(ctx context.Context, cs []Choice) error
	SetChoiceHasImage(ctx context.Context, id int64, has bool) error

	InsertQuestionImages(ctx context.Context, imgs []QuestionImage) error
	InsertChoiceImages(ctx context.Context, imgs []ChoiceImage) error
	GetQuestionImage(ctx context.Context, id int64) (*QuestionImage, error)
	DeleteQuestionImage(ctx context.Context, id int64) error
	ListQuestionImages(ctx context.Context, questionID int64) ([]QuestionImage, error)

	InsertImportRun(ctx context.Context, run *ImportRun) error
}
