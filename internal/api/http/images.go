package http

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fexa-archive/fexa/internal/exam"
	"github.com/fexa-archive/fexa/internal/storage"
)

const maxImageSize = 10 << 20 // 10MB

// UploadImageHandler stores one image for a question (or one of its
// choices) online, with the same compensating-delete rule as the batch
// importer: a blob whose metadata row fails to land is removed before the
// error surfaces.
func UploadImageHandler(store exam.Store, blobs storage.BlobStore, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxImageSize); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		f, header, err := r.FormFile("image")
		if err != nil {
			writeError(w, http.StatusBadRequest, "image file required")
			return
		}
		defer f.Close()

		questionID, err := strconv.ParseInt(r.FormValue("question_id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "question_id required")
			return
		}
		var choiceID int64
		if v := r.FormValue("choice_id"); v != "" {
			if choiceID, err = strconv.ParseInt(v, 10, 64); err != nil {
				writeError(w, http.StatusBadRequest, "invalid choice_id")
				return
			}
		}

		owner := "question"
		if choiceID != 0 {
			owner = strconv.FormatInt(choiceID, 10)
		}
		key := fmt.Sprintf("%d/%s/%s%s", questionID, owner, uuid.NewString(), filepath.Ext(header.Filename))

		if _, err := blobs.Put(key, f); err != nil {
			writeError(w, http.StatusInternalServerError, "upload failed: "+err.Error())
			return
		}

		insert := func() error {
			if choiceID != 0 {
				img := exam.ChoiceImage{
					ChoiceID:   choiceID,
					Filename:   header.Filename,
					StorageKey: key,
					Uploaded:   true,
				}
				if err := store.InsertChoiceImages(r.Context(), []exam.ChoiceImage{img}); err != nil {
					return err
				}
				return store.SetChoiceHasImage(r.Context(), choiceID, true)
			}
			img := exam.QuestionImage{
				QuestionID: questionID,
				Filename:   header.Filename,
				StorageKey: key,
				Uploaded:   true,
			}
			if err := store.InsertQuestionImages(r.Context(), []exam.QuestionImage{img}); err != nil {
				return err
			}
			return store.SetQuestionHasImage(r.Context(), questionID, true)
		}
		if err := insert(); err != nil {
			// No orphaned blobs: undo the upload before reporting.
			if derr := blobs.Delete(key); derr != nil {
				log.Error("orphaned blob cleanup failed", zap.String("key", key), zap.Error(derr))
			}
			writeError(w, http.StatusInternalServerError, "image record failed: "+err.Error())
			return
		}

		url, _ := blobs.SignedURL(key)
		writeJSON(w, http.StatusOK, map[string]any{"key": key, "url": url})
	}
}

// DeleteImageHandler removes a question image row and its blob. The row
// goes last so a blob-store hiccup never leaves a dangling reference.
func DeleteImageHandler(store exam.Store, blobs storage.BlobStore, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "imageID"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid image id")
			return
		}

		img, err := store.GetQuestionImage(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusNotFound, "image not found")
			return
		}
		if img.Uploaded && img.StorageKey != "" {
			if err := blobs.Delete(img.StorageKey); err != nil {
				log.Error("blob delete failed", zap.String("key", img.StorageKey), zap.Error(err))
			}
		}
		if err := store.DeleteQuestionImage(r.Context(), id); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
