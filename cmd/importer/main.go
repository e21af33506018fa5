// The importer is the one-shot batch tool: it parses a Markdown
// transcription or an exam paper PDF and registers its questions into the
// archive. The process exits 0 when the run completes, even with
// per-question failures recorded in the report; nonzero exits mean the run
// could not establish an exam identity or a store connection.
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fexa-archive/fexa/internal/config"
	"github.com/fexa-archive/fexa/internal/db"
	"github.com/fexa-archive/fexa/internal/exam"
	"github.com/fexa-archive/fexa/internal/formats"
	_ "github.com/fexa-archive/fexa/internal/formats/markdown"
	_ "github.com/fexa-archive/fexa/internal/formats/pdf"
	"github.com/fexa-archive/fexa/internal/importer"
	"github.com/fexa-archive/fexa/internal/logger"
	"github.com/fexa-archive/fexa/internal/retry"
	"github.com/fexa-archive/fexa/internal/storage"
)

var (
	overwrite    bool
	onlyQuestion int
	typeFlag     string
	kindFlag     string
	debugMode    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "importer <source-file> [year] [season]",
		Short: "Register FE exam questions from a Markdown or PDF source",
		Long: `Parses a past-exam source document and writes its questions, choices and
images into the archive. Year and season are inferred from the directory
name (e.g. 2023_a) or from the era heading in the document; explicit
arguments override both. Re-running against the same source is safe:
already-complete questions are skipped unless --overwrite is given.`,
		Args:          cobra.RangeArgs(1, 3),
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace existing complete questions")
	rootCmd.Flags().IntVar(&onlyQuestion, "question", 0, "import only this question number")
	rootCmd.Flags().StringVar(&typeFlag, "type", "", "question type override (morning|afternoon)")
	rootCmd.Flags().StringVar(&kindFlag, "format", "", "source format (markdown|pdf); default from extension")
	rootCmd.Flags().BoolVar(&debugMode, "debug", false, "debug logging")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	log := logger.New(debugMode)
	defer func() { _ = log.Sync() }()

	cfg := config.FromEnv()

	src, err := buildSource(args)
	if err != nil {
		return err
	}

	kind := kindFlag
	if kind == "" {
		kind = kindFromExt(src.Path)
	}
	parser, ok := formats.Lookup(kind)
	if !ok {
		return fmt.Errorf("unsupported source format %q", kind)
	}

	ctx := context.Background()
	log.Info("import starting",
		zap.String("file", src.Path), zap.String("format", kind))

	paper, err := parser.Parse(ctx, src)
	if err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(src.Path), err)
	}
	log.Info("source parsed",
		zap.Int("questions", len(paper.Questions)),
		zap.Int("dropped", len(paper.Warnings)),
		zap.Int("year", paper.Info.Year),
		zap.String("season", string(paper.Info.Season)),
		zap.String("type", string(paper.Type)))

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	dbh, err := db.Open(openCtx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer dbh.Close()

	store := exam.NewSQLStore(dbh, cfg.DBDriver).WithRetryPolicy(retry.Policy{
		MaxAttempts: cfg.StoreMaxAttempts,
		Backoff:     retry.Exponential(200 * time.Millisecond),
	})
	blobs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		return fmt.Errorf("blob store: %w", err)
	}

	// The PDF source itself is archived alongside the extracted questions.
	if kind == "pdf" {
		key := fmt.Sprintf("%d/%s/%s", paper.Info.Year, paper.Info.Season, filepath.Base(src.Path))
		if _, err := blobs.Put(key, bytes.NewReader(src.Data)); err != nil {
			log.Warn("source pdf archive failed", zap.Error(err))
		}
	}

	orch := importer.New(store, blobs, log, importer.Options{
		Overwrite:           overwrite,
		OnlyQuestion:        onlyQuestion,
		ExpectedChoiceCount: cfg.ExpectedChoiceCount,
	})
	report, err := orch.Run(ctx, paper, src.Path)
	if err != nil {
		return err
	}

	fmt.Print(report.Summary())
	return nil
}

func buildSource(args []string) (formats.Source, error) {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return formats.Source{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return formats.Source{}, fmt.Errorf("read source: %w", err)
	}

	src := formats.Source{Path: path, Data: data}
	if len(args) >= 2 {
		year, err := strconv.Atoi(args[1])
		if err != nil {
			return formats.Source{}, fmt.Errorf("invalid year %q", args[1])
		}
		src.OverrideYear = year
	}
	if len(args) >= 3 {
		season, ok := exam.ParseSeason(args[2])
		if !ok {
			return formats.Source{}, fmt.Errorf("invalid season %q", args[2])
		}
		src.OverrideSeason = season
	}
	if typeFlag != "" {
		qt, ok := exam.ParseQuestionType(typeFlag)
		if !ok {
			return formats.Source{}, fmt.Errorf("invalid question type %q", typeFlag)
		}
		src.OverrideType = qt
	}
	return src, nil
}

func kindFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "pdf"
	default:
		return "markdown"
	}
}
