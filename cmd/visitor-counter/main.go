// Command visitor-counter increments the visitor counter once and writes the
// new count into a page, the same way the browser widget does on page load.
//
//	visitor-counter -page index.html -out index.rendered.html
//
// Without -page, a bare page holding only the counter element is rendered.
package main

import (
	"context"
	"flag"
	"fmt"
	"html"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/terngkub/the-cloud-resume-challenge/internal/config"
	"github.com/terngkub/the-cloud-resume-challenge/internal/counter"
	"github.com/terngkub/the-cloud-resume-challenge/internal/logging"
	"github.com/terngkub/the-cloud-resume-challenge/internal/page"
	"github.com/terngkub/the-cloud-resume-challenge/internal/widget"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "visitor-counter:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("visitor-counter", flag.ContinueOnError)
	flags.SetOutput(stderr)
	pagePath := flags.String("page", "", "HTML page holding the counter element")
	outPath := flags.String("out", "-", "where to write the rendered page, - for stdout")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(cfg.LogLevel, stderr)
	defer logger.Sync()

	doc, err := loadPage(*pagePath, cfg.ElementID)
	if err != nil {
		return err
	}

	client := counter.New(cfg.CounterURL,
		counter.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		counter.WithUserAgent(cfg.UserAgent),
	)
	if _, err := widget.New(client, doc, cfg.ElementID, logger).Show(ctx); err != nil {
		return err
	}

	return writePage(doc, *outPath, stdout)
}

func loadPage(path, elementID string) (*page.Document, error) {
	if path == "" {
		bare := fmt.Sprintf(`<!DOCTYPE html><html><body><span id="%s"></span></body></html>`, html.EscapeString(elementID))
		return page.Parse(strings.NewReader(bare))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer f.Close()
	return page.Parse(f)
}

func writePage(doc *page.Document, path string, stdout io.Writer) error {
	if path == "-" {
		return doc.Render(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := doc.Render(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
