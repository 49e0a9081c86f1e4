// Command counter-probe loads the resume page in headless Chrome, reads the
// visitor counter the widget displays and checks that it grows between loads.
// Readings are stored when DB_URL is set.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/terngkub/the-cloud-resume-challenge/internal/config"
	"github.com/terngkub/the-cloud-resume-challenge/internal/logging"
	"github.com/terngkub/the-cloud-resume-challenge/internal/probe"
	"github.com/terngkub/the-cloud-resume-challenge/internal/storage"
	"github.com/terngkub/the-cloud-resume-challenge/pkg/models"
)

func main() {
	loads := flag.Int("loads", 2, "Number of page loads to read")
	verify := flag.Bool("verify", true, "Fail unless every load shows a larger count than the one before")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.LogLevel, os.Stderr)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	browser := probe.NewChromeBrowser(ctx, cfg.UserAgent)
	defer browser.Close()

	if err := run(ctx, cfg, browser, logger, *loads, *verify); err != nil {
		logger.Error("probe failed", zap.Error(err))
		_ = logger.Sync()
		browser.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, browser probe.Browser, logger *zap.Logger, loads int, verify bool) error {
	if loads < 1 {
		return fmt.Errorf("-loads must be at least 1, got %d", loads)
	}

	var (
		results chan models.Reading
		saved   <-chan struct{}
	)
	if cfg.DatabaseURL != "" {
		store, err := waitForStore(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		results = make(chan models.Reading, cfg.BatchSize)
		saved = storage.StartSaveWorker(ctx, store, results, cfg.BatchSize, 2*time.Second, logger)
	}

	p := probe.New(probe.Config{
		PageURL:      cfg.PageURL,
		ElementID:    cfg.ElementID,
		UserAgent:    cfg.UserAgent,
		SettleWait:   cfg.SettleWait,
		LoadInterval: cfg.LoadInterval,
	}, browser, &http.Client{Timeout: cfg.RequestTimeout}, logger)

	readings, readErr := collect(ctx, p, loads, results, logger)
	if results != nil {
		close(results)
		<-saved
	}
	if readErr != nil {
		return readErr
	}

	if verify {
		if err := probe.CheckIncreasing(readings); err != nil {
			return err
		}
		logger.Info("visitor counter increases", zap.Int("loads", len(readings)))
	}
	return nil
}

func collect(ctx context.Context, p *probe.Probe, loads int, results chan<- models.Reading, logger *zap.Logger) ([]models.Reading, error) {
	readings := make([]models.Reading, 0, loads)
	for i := 0; i < loads; i++ {
		r, err := p.Read(ctx)
		if err != nil {
			return readings, fmt.Errorf("load %d: %w", i+1, err)
		}
		logger.Info("visitor counter",
			zap.Int("load", i+1),
			zap.String("page", r.PageURL),
			zap.Int64("visitor-counter", int64(r.Count)))
		readings = append(readings, r)
		if results != nil {
			select {
			case results <- r:
			case <-ctx.Done():
				return readings, ctx.Err()
			}
		}
	}
	return readings, nil
}

// waitForStore retries while the database is still starting up.
func waitForStore(ctx context.Context, dsn string, logger *zap.Logger) (*storage.Store, error) {
	var err error
	for i := 0; i < 10; i++ {
		var store *storage.Store
		if store, err = storage.Open(ctx, dsn); err == nil {
			logger.Info("connected to database")
			return store, nil
		}
		logger.Warn("waiting for database", zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	return nil, fmt.Errorf("could not connect to database after retries: %w", err)
}
