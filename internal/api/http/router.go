// Package http is the thin admin/viewer surface over the archive: health,
// read endpoints for the frontend, and the single-image upload path. The
// importer does the heavy lifting; nothing here contains business logic
// beyond response shaping.
package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/fexa-archive/fexa/internal/exam"
	"github.com/fexa-archive/fexa/internal/storage"
)

func NewRouter(store exam.Store, blobs storage.BlobStore, log *zap.Logger, origins []string) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		api.Get("/exams", ListExamsHandler(store))
		api.Get("/exams/{year}/{season}/questions", ListQuestionsHandler(store))
		api.Get("/questions/{questionID}", GetQuestionHandler(store, blobs))
		api.Post("/images/upload", UploadImageHandler(store, blobs, log))
		api.Delete("/images/{imageID}", DeleteImageHandler(store, blobs, log))
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": map[string]string{"message": msg}})
}
