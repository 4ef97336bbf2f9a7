package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/aliskhannn/azvocab-bot/internal/config"
	"github.com/aliskhannn/azvocab-bot/internal/importer"
	"github.com/aliskhannn/azvocab-bot/internal/infra/postgres"
	"github.com/aliskhannn/azvocab-bot/internal/infra/postgres/repository"
	"github.com/aliskhannn/azvocab-bot/internal/logger"
)

func main() {
	file := flag.String("file", "", "deck file (.xlsx or .csv): source, target, emoji, level, transcription")
	sheet := flag.String("sheet", "", "sheet name, first sheet when empty")
	header := flag.Bool("header", true, "first row is a header")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		log.Fatal("-file is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	l, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dsn, err := cfg.DB.DSN()
	if err != nil {
		l.Fatal("database is not configured", zap.Error(err))
	}

	if err := postgres.Migrate(dsn); err != nil {
		l.Fatal("failed to migrate database", zap.Error(err))
	}

	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{MaxConns: 2})
	if err != nil {
		l.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	words := repository.NewWordRepository(pool)
	tx := postgres.NewTransactor(pool)

	var res *importer.Result
	err = tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		res, err = importer.Import(ctx, words, importer.Config{
			FilePath:   *file,
			SheetName:  *sheet,
			SkipHeader: *header,
		})
		return err
	})
	if err != nil {
		l.Fatal("import failed", zap.String("file", *file), zap.Error(err))
	}

	for _, e := range res.Errors {
		l.Warn("row skipped", zap.String("reason", e))
	}

	total, err := words.Count(ctx)
	if err != nil {
		l.Fatal("failed to count words", zap.Error(err))
	}

	l.Info("deck imported",
		zap.String("file", *file),
		zap.Int("processed", res.Processed),
		zap.Int("imported", res.Imported),
		zap.Int("skipped", len(res.Errors)),
		zap.Int("deck_size", total))
}
