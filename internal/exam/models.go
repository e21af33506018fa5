package exam

import "time"

// Season of one sitting of the FE exam.
type Season string

const (
	SeasonSpring Season = "春期"
	SeasonAutumn Season = "秋期"
)

// QuestionType distinguishes the morning and afternoon sessions.
type QuestionType string

const (
	TypeMorning   QuestionType = "午前"
	TypeAfternoon QuestionType = "午後"
)

// Labels of the fixed four-option FE format, in canonical order.
var ChoiceLabels = []string{"ア", "イ", "ウ", "エ"}

// ChoiceTableFormat records how a question's tabular choice set is stored.
type ChoiceTableFormat string

const (
	TableFormatNone     ChoiceTableFormat = "none"
	TableFormatMarkdown ChoiceTableFormat = "markdown"
	TableFormatImage    ChoiceTableFormat = "image"
)

// Exam is one sitting, unique on (year, season). Created by upsert, looked
// up thereafter.
type Exam struct {
	ID     int64  `json:"id"`
	Year   int    `json:"year"`
	Season Season `json:"season"`
}

// Question is unique on (exam_id, number, type). A question is complete when
// it owns the expected number of choices (4 in this exam format).
type Question struct {
	ID                  int64             `json:"id"`
	ExamID              int64             `json:"exam_id"`
	Number              int               `json:"question_number"`
	Type                QuestionType      `json:"question_type"`
	Text                string            `json:"question_text"`
	HasImage            bool              `json:"has_image"`
	HasChoiceTable      bool              `json:"has_choice_table"`
	ChoiceTableFormat   ChoiceTableFormat `json:"choice_table_format"`
	ChoiceTableMarkdown string            `json:"choice_table_markdown,omitempty"`
}

// Choice belongs to exactly one question; deleting the question cascades.
// Table-form choices carry the shared header row and their own data row,
// both stored as JSON arrays; Text then holds a synthesized summary for
// clients without a table renderer.
type Choice struct {
	ID            int64    `json:"id"`
	QuestionID    int64    `json:"question_id"`
	Label         string   `json:"choice_label"`
	Text          string   `json:"choice_text"`
	HasImage      bool     `json:"has_image"`
	IsTableFormat bool     `json:"is_table_format"`
	TableHeaders  []string `json:"table_headers,omitempty"`
	TableData     []string `json:"table_data,omitempty"`
}

// QuestionImage references a blob owned by a question. StorageKey is empty
// until the file has been uploaded (is_uploaded=false rows flag pending
// operator work).
type QuestionImage struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"question_id"`
	Filename   string `json:"filename"`
	AltText    string `json:"alt_text"`
	StorageKey string `json:"storage_key,omitempty"`
	Uploaded   bool   `json:"is_uploaded"`
}

// ChoiceImage references a blob owned by a single choice.
type ChoiceImage struct {
	ID         int64  `json:"id"`
	ChoiceID   int64  `json:"choice_id"`
	Filename   string `json:"filename"`
	AltText    string `json:"alt_text"`
	StorageKey string `json:"storage_key,omitempty"`
	Uploaded   bool   `json:"is_uploaded"`
}

// ImportRun is the operator-audit record of one importer invocation.
type ImportRun struct {
	ID           int64     `json:"id"`
	ExamID       int64     `json:"exam_id"`
	SourceFile   string    `json:"source_file"`
	New          int       `json:"questions_new"`
	Reregistered int       `json:"questions_reregistered"`
	Skipped      int       `json:"questions_skipped"`
	Failed       int       `json:"questions_failed"`
	TotalImages  int       `json:"total_images"`
	Status       string    `json:"import_status"` // success | partial_success
	ErrorLog     string    `json:"error_log,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// ParseSeason normalizes CLI input: accepts the Japanese terms and the
// English words the frontend uses.
func ParseSeason(s string) (Season, bool) {
	switch s {
	case string(SeasonSpring), "spring", "Spring":
		return SeasonSpring, true
	case string(SeasonAutumn), "autumn", "Autumn", "fall":
		return SeasonAutumn, true
	}
	return "", false
}

// ParseQuestionType normalizes CLI input for the session type.
func ParseQuestionType(s string) (QuestionType, bool) {
	switch s {
	case string(TypeMorning), "morning", "Morning", "am":
		return TypeMorning, true
	case string(TypeAfternoon), "afternoon", "Afternoon", "pm":
		return TypeAfternoon, true
	}
	return "", false
}

// IsValidLabel reports whether s is one of the four FE choice labels.
func IsValidLabel(s string) bool {
	for _, l := range ChoiceLabels {
		if s == l {
			return true
		}
	}
	return false
}
