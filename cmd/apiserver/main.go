package main

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	api "github.com/fexa-archive/fexa/internal/api/http"
	"github.com/fexa-archive/fexa/internal/config"
	"github.com/fexa-archive/fexa/internal/db"
	"github.com/fexa-archive/fexa/internal/exam"
	"github.com/fexa-archive/fexa/internal/logger"
	"github.com/fexa-archive/fexa/internal/storage"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(false)
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatal("db open failed", zap.Error(err))
	}
	store := exam.NewSQLStore(dbh, cfg.DBDriver)

	blobs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatal("blob store init failed", zap.Error(err))
	}

	r := api.NewRouter(store, blobs, log, cfg.CORSOrigins)
	log.Info("apiserver listening", zap.String("addr", cfg.HTTPAddr))
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
