package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fexa-archive/fexa/internal/exam"
	"github.com/fexa-archive/fexa/internal/storage"
)

func ListExamsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exams, err := store.ListExams(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"exams": exams})
	}
}

func ListQuestionsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		year, err := strconv.Atoi(chi.URLParam(r, "year"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		season, ok := exam.ParseSeason(chi.URLParam(r, "season"))
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid season")
			return
		}

		ex, err := store.GetExam(r.Context(), year, season)
		if err != nil {
			writeError(w, http.StatusNotFound, "exam not found")
			return
		}

		var qtype exam.QuestionType
		if t := r.URL.Query().Get("type"); t != "" {
			qtype, ok = exam.ParseQuestionType(t)
			if !ok {
				writeError(w, http.StatusBadRequest, "invalid question type")
				return
			}
		}
		questions, err := store.ListQuestions(r.Context(), ex.ID, qtype)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"exam": ex, "questions": questions})
	}
}

// GetQuestionHandler returns one question with display-annotated choices
// and resolved image URLs. A table-form question that predates the stored
// choice_table_markdown column gets the table rebuilt from its rows.
func GetQuestionHandler(store exam.Store, blobs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "questionID"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid question id")
			return
		}

		q, err := store.GetQuestion(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusNotFound, "question not found")
			return
		}
		choices, err := store.ListChoices(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		images, err := store.ListQuestionImages(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		if q.HasChoiceTable && q.ChoiceTableMarkdown == "" {
			q.ChoiceTableMarkdown = exam.ChoicesToMarkdownTable(choices)
		}

		urls := make(map[string]string, len(images))
		for _, img := range images {
			if !img.Uploaded || img.StorageKey == "" {
				continue
			}
			if u, err := blobs.SignedURL(img.StorageKey); err == nil {
				urls[img.Filename] = u
			}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"question":   q,
			"choices":    exam.FormatChoices(choices),
			"images":     images,
			"image_urls": urls,
		})
	}
}
