package main

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // Postgres driver
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sheikh-saqib/payments-engine/internal/config"
	"github.com/sheikh-saqib/payments-engine/internal/csvio"
	"github.com/sheikh-saqib/payments-engine/internal/events/kafka"
	interfaces "github.com/sheikh-saqib/payments-engine/internal/interfaces"
	"github.com/sheikh-saqib/payments-engine/internal/ledger"
	"github.com/sheikh-saqib/payments-engine/internal/models"
	"github.com/sheikh-saqib/payments-engine/internal/storage/memory"
	"github.com/sheikh-saqib/payments-engine/internal/storage/postgres"
)

const exportTimeout = 30 * time.Second

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// run processes one input file and writes the snapshot to stdout. Nothing is
// written to stdout unless the whole run succeeds.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.Load(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return err
	}

	runID := uuid.New()
	logger := newLogger(cfg.LogLevel, stderr).With(zap.Stringer("run_id", runID))
	defer logger.Sync()

	accounts, err := process(cfg.InputPath, logger)
	if err != nil {
		logger.Error("run aborted", zap.String("input", cfg.InputPath), zap.Error(err))
		return err
	}

	if err := export(ctx, cfg, runID, accounts, logger); err != nil {
		logger.Error("snapshot export failed", zap.Error(err))
		return err
	}

	var buf bytes.Buffer
	if err := csvio.NewWriter(&buf).Write(accounts); err != nil {
		logger.Error("encode snapshot", zap.Error(err))
		return err
	}
	if _, err := stdout.Write(buf.Bytes()); err != nil {
		logger.Error("write snapshot", zap.Error(err))
		return err
	}
	return nil
}

func process(path string, logger *zap.Logger) ([]models.Account, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, err := csvio.NewReader(bufio.NewReader(f))
	if err != nil {
		return nil, err
	}

	l := ledger.NewLedger(memory.NewMemoryHistoryStore(), logger)
	accounts, err := l.Process(src)
	if err != nil {
		return nil, err
	}

	stats := l.Stats()
	skipped := 0
	for _, n := range stats.Skipped {
		skipped += n
	}
	logger.Info("run completed",
		zap.Int("events", stats.Events),
		zap.Int("applied", stats.Applied),
		zap.Int("skipped", skipped),
		zap.Int("accounts", len(accounts)),
	)
	return accounts, nil
}

// export hands the snapshot to the configured sinks.
func export(ctx context.Context, cfg *config.Config, runID uuid.UUID, accounts []models.Account, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, exportTimeout)
	defer cancel()

	if len(cfg.Kafka.Brokers) > 0 {
		publisher := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err := publish(ctx, publisher, runID, accounts); err != nil {
			return err
		}
		logger.Info("snapshots published", zap.String("topic", publisher.Topic()), zap.Int("accounts", len(accounts)))
	}

	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}

		store := postgres.NewPostgresSnapshotStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if err := archive(ctx, store, runID, accounts); err != nil {
			return err
		}
		logger.Info("snapshots archived", zap.Int("accounts", len(accounts)))
	}

	return nil
}

func publish(ctx context.Context, p interfaces.SnapshotPublisher, runID uuid.UUID, accounts []models.Account) (err error) {
	defer func() {
		// a failed close can drop buffered messages
		if cerr := p.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close publisher: %w", cerr)
		}
	}()

	if err = p.PublishSnapshots(ctx, runID, accounts); err != nil {
		return fmt.Errorf("publish snapshots: %w", err)
	}
	return nil
}

func archive(ctx context.Context, s interfaces.SnapshotStore, runID uuid.UUID, accounts []models.Account) error {
	if err := s.SaveSnapshots(ctx, runID, accounts); err != nil {
		return fmt.Errorf("archive snapshots: %w", err)
	}

	stored, err := s.GetSnapshots(ctx, runID)
	if err != nil {
		return fmt.Errorf("read back snapshots: %w", err)
	}
	if len(stored) != len(accounts) {
		return fmt.Errorf("archived %d of %d snapshots", len(stored), len(accounts))
	}
	return nil
}

func newLogger(level zapcore.Level, w io.Writer) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(w), level)
	return zap.New(core)
}
