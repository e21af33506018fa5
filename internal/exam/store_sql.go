package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fexa-archive/fexa/internal/retry"
)

// SQLStore implements Store over database/sql ("postgres" via the pgx stdlib
// driver, "sqlite" via modernc for dev and tests). Every call goes through
// the retry policy; placeholders are $1-style, which both drivers accept.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
	policy retry.Policy
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver, policy: retry.DefaultPolicy()}
}

// WithRetryPolicy overrides the default policy (tests use a 1-attempt one).
func (s *SQLStore) WithRetryPolicy(p retry.Policy) *SQLStore {
	s.policy = p
	return s
}

func (s *SQLStore) UpsertExam(ctx context.Context, year int, season Season) (Exam, error) {
	e := Exam{Year: year, Season: season}
	err := s.policy.Do(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			`INSERT INTO exams (year, season) VALUES ($1, $2)
			 ON CONFLICT (year, season) DO UPDATE SET year = EXCLUDED.year
			 RETURNING id`,
			year, string(season)).Scan(&e.ID)
	})
	if err != nil {
		return Exam{}, fmt.Errorf("upsert exam %d %s: %w", year, season, err)
	}
	return e, nil
}

func (s *SQLStore) GetExam(ctx context.Context, year int, season Season) (Exam, error) {
	var e Exam
	err := s.policy.Do(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			`SELECT id, year, season FROM exams WHERE year=$1 AND season=$2`,
			year, string(season)).Scan(&e.ID, &e.Year, &e.Season)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Exam{}, errors.New("exam not found")
	}
	return e, err
}

func (s *SQLStore) ListExams(ctx context.Context) ([]Exam, error) {
	var out []Exam
	err := s.policy.Do(ctx, func() error {
		rows, err := s.db.QueryContext(ctx,
			`SELECT id, year, season FROM exams ORDER BY year DESC, season`)
		if err != nil {
			return err
		}
		defer rows.Close()
		out = out[:0]
		for rows.Next() {
			var e Exam
			if err := rows.Scan(&e.ID, &e.Year, &e.Season); err != nil {
				return err
			}
			out = append(out, e)
		}
		return rows.Err()
	})
	return out, err
}

const questionCols = `id, exam_id, question_number, question_type, question_text,
	has_image, has_choice_table, choice_table_format, choice_table_markdown`

func scanQuestion(row interface{ Scan(...any) error }) (*Question, error) {
	var q Question
	var md sql.NullString
	if err := row.Scan(&q.ID, &q.ExamID, &q.Number, &q.Type, &q.Text,
		&q.HasImage, &q.HasChoiceTable, &q.ChoiceTableFormat, &md); err != nil {
		return nil, err
	}
	q.ChoiceTableMarkdown = md.String
	return &q, nil
}

func (s *SQLStore) FindQuestion(ctx context.Context, examID int64, number int, qt QuestionType) (*Question, error) {
	var q *Question
	err := s.policy.Do(ctx, func() error {
		var err error
		q, err = scanQuestion(s.db.QueryRowContext(ctx,
			`SELECT `+questionCols+` FROM questions
			 WHERE exam_id=$1 AND question_number=$2 AND question_type=$3`,
			examID, number, string(qt)))
		if errors.Is(err, sql.ErrNoRows) {
			q = nil
			return nil
		}
		return err
	})
	return q, err
}

func (s *SQLStore) GetQuestion(ctx context.Context, id int64) (*Question, error) {
	var q *Question
	err := s.policy.Do(ctx, func() error {
		var err error
		q, err = scanQuestion(s.db.QueryRowContext(ctx,
			`SELECT `+questionCols+` FROM questions WHERE id=$1`, id))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.New("question not found")
	}
	return q, err
}

func (s *SQLStore) ListQuestions(ctx context.Context, examID int64, qt QuestionType) ([]Question, error) {
	query := `SELECT ` + questionCols + ` FROM questions WHERE exam_id=$1`
	args := []any{examID}
	if qt != "" {
		query += ` AND question_type=$2`
		args = append(args, string(qt))
	}
	query += ` ORDER BY question_number`

	var out []Question
	err := s.policy.Do(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out = out[:0]
		for rows.Next() {
			q, err := scanQuestion(rows)
			if err != nil {
				return err
			}
			out = append(out, *q)
		}
		return rows.Err()
	})
	return out, err
}

func (s *SQLStore) InsertQuestion(ctx context.Context, q *Question) error {
	if q.ChoiceTableFormat == "" {
		q.ChoiceTableFormat = TableFormatNone
	}
	return s.policy.Do(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			`INSERT INTO questions
			 (exam_id, question_number, question_type, question_text,
			  has_image, has_choice_table, choice_table_format, choice_table_markdown)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id`,
			q.ExamID, q.Number, string(q.Type), q.Text,
			q.HasImage, q.HasChoiceTable, string(q.ChoiceTableFormat),
			nullString(q.ChoiceTableMarkdown)).Scan(&q.ID)
	})
}

func (s *SQLStore) DeleteQuestion(ctx context.Context, id int64) error {
	// Choices and images go with it via ON DELETE CASCADE.
	return s.policy.Do(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id=$1`, id)
		return err
	})
}

func (s *SQLStore) SetQuestionHasImage(ctx context.Context, id int64, has bool) error {
	return s.policy.Do(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`UPDATE questions SET has_image=$1 WHERE id=$2`, has, id)
		return err
	})
}

func (s *SQLStore) CountChoices(ctx context.Context, questionID int64) (int, error) {
	var n int
	err := s.policy.Do(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM choices WHERE question_id=$1`, questionID).Scan(&n)
	})
	return n, err
}

func (s *SQLStore) ListChoices(ctx context.Context, questionID int64) ([]Choice, error) {
	var out []Choice
	err := s.policy.Do(ctx, func() error {
		rows, err := s.db.QueryContext(ctx,
			`SELECT id, question_id, choice_label, choice_text, has_image,
			        is_table_format, table_headers, table_data
			 FROM choices WHERE question_id=$1 ORDER BY id`, questionID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out = out[:0]
		for rows.Next() {
			var c Choice
			var headers, data sql.NullString
			if err := rows.Scan(&c.ID, &c.QuestionID, &c.Label, &c.Text,
				&c.HasImage, &c.IsTableFormat, &headers, &data); err != nil {
				return err
			}
			if headers.Valid {
				if err := json.Unmarshal([]byte(headers.String), &c.TableHeaders); err != nil {
					return fmt.Errorf("choice %d table_headers: %w", c.ID, err)
				}
			}
			if data.Valid {
				if err := json.Unmarshal([]byte(data.String), &c.TableData); err != nil {
					return fmt.Errorf("choice %d table_data: %w", c.ID, err)
				}
			}
			out = append(out, c)
		}
		return rows.Err()
	})
	return out, err
}

func (s *SQLStore) InsertChoices(ctx context.Context, cs []Choice) error {
	for i := range cs {
		c := &cs[i]
		headers, err := jsonOrNull(c.TableHeaders)
		if err != nil {
			return err
		}
		data, err := jsonOrNull(c.TableData)
		if err != nil {
			return err
		}
		err = s.policy.Do(ctx, func() error {
			return s.db.QueryRowContext(ctx,
				`INSERT INTO choices
				 (question_id, choice_label, choice_text, has_image,
				  is_table_format, table_headers, table_data)
				 VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
				c.QuestionID, c.Label, c.Text, c.HasImage,
				c.IsTableFormat, headers, data).Scan(&c.ID)
		})
		if err != nil {
			return fmt.Errorf("insert choice %s: %w", c.Label, err)
		}
	}
	return nil
}

func (s *SQLStore) SetChoiceHasImage(ctx context.Context, id int64, has bool) error {
	return s.policy.Do(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`UPDATE choices SET has_image=$1 WHERE id=$2`, has, id)
		return err
	})
}

func (s *SQLStore) InsertQuestionImages(ctx context.Context, imgs []QuestionImage) error {
	for i := range imgs {
		img := &imgs[i]
		err := s.policy.Do(ctx, func() error {
			return s.db.QueryRowContext(ctx,
				`INSERT INTO question_images
				 (question_id, filename, alt_text, storage_key, is_uploaded)
				 VALUES ($1,$2,$3,$4,$5) RETURNING id`,
				img.QuestionID, img.Filename, img.AltText,
				nullString(img.StorageKey), img.Uploaded).Scan(&img.ID)
		})
		if err != nil {
			return fmt.Errorf("insert question image %s: %w", img.Filename, err)
		}
	}
	return nil
}

func (s *SQLStore) InsertChoiceImages(ctx context.Context, imgs []ChoiceImage) error {
	for i := range imgs {
		img := &imgs[i]
		err := s.policy.Do(ctx, func() error {
			return s.db.QueryRowContext(ctx,
				`INSERT INTO choice_images
				 (choice_id, filename, alt_text, storage_key, is_uploaded)
				 VALUES ($1,$2,$3,$4,$5) RETURNING id`,
				img.ChoiceID, img.Filename, img.AltText,
				nullString(img.StorageKey), img.Uploaded).Scan(&img.ID)
		})
		if err != nil {
			return fmt.Errorf("insert choice image %s: %w", img.Filename, err)
		}
	}
	return nil
}

func (s *SQLStore) GetQuestionImage(ctx context.Context, id int64) (*QuestionImage, error) {
	var img QuestionImage
	err := s.policy.Do(ctx, func() error {
		var key sql.NullString
		err := s.db.QueryRowContext(ctx,
			`SELECT id, question_id, filename, alt_text, storage_key, is_uploaded
			 FROM question_images WHERE id=$1`, id).
			Scan(&img.ID, &img.QuestionID, &img.Filename, &img.AltText, &key, &img.Uploaded)
		img.StorageKey = key.String
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.New("image not found")
	}
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func (s *SQLStore) DeleteQuestionImage(ctx context.Context, id int64) error {
	return s.policy.Do(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM question_images WHERE id=$1`, id)
		return err
	})
}

func (s *SQLStore) ListQuestionImages(ctx context.Context, questionID int64) ([]QuestionImage, error) {
	var out []QuestionImage
	err := s.policy.Do(ctx, func() error {
		rows, err := s.db.QueryContext(ctx,
			`SELECT id, question_id, filename, alt_text, storage_key, is_uploaded
			 FROM question_images WHERE question_id=$1 ORDER BY id`, questionID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out = out[:0]
		for rows.Next() {
			var img QuestionImage
			var key sql.NullString
			if err := rows.Scan(&img.ID, &img.QuestionID, &img.Filename,
				&img.AltText, &key, &img.Uploaded); err != nil {
				return err
			}
			img.StorageKey = key.String
			out = append(out, img)
		}
		return rows.Err()
	})
	return out, err
}

func (s *SQLStore) InsertImportRun(ctx context.Context, run *ImportRun) error {
	return s.policy.Do(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			`INSERT INTO import_runs
			 (exam_id, source_file, questions_new, questions_reregistered,
			  questions_skipped, questions_failed, total_images, import_status,
			  error_log, started_at, finished_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING id`,
			run.ExamID, run.SourceFile, run.New, run.Reregistered,
			run.Skipped, run.Failed, run.TotalImages, run.Status,
			nullString(run.ErrorLog), run.StartedAt.Unix(), run.FinishedAt.Unix()).
			Scan(&run.ID)
	})
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func jsonOrNull(ss []string) (sql.NullString, error) {
	if len(ss) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(ss)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}
