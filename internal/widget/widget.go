// Package widget shows the visitor counter in a page element.
package widget

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/terngkub/the-cloud-resume-challenge/pkg/models"
)

// Counter increments the remote counter and returns its new value.
type Counter interface {
	Increase(ctx context.Context) (models.VisitorCount, error)
}

// Document is the page the count is written into.
type Document interface {
	SetText(id, text string) error
}

type Widget struct {
	counter   Counter
	doc       Document
	elementID string
	logger    *zap.Logger
}

func New(counter Counter, doc Document, elementID string, logger *zap.Logger) *Widget {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Widget{
		counter:   counter,
		doc:       doc,
		elementID: elementID,
		logger:    logger,
	}
}

// Show increments the counter once, writes the count into the element and
// logs it. On error the element is left as it was.
func (w *Widget) Show(ctx context.Context) (models.VisitorCount, error) {
	count, err := w.counter.Increase(ctx)
	if err != nil {
		return 0, fmt.Errorf("increase visitor counter: %w", err)
	}
	if err := w.doc.SetText(w.elementID, count.String()); err != nil {
		return 0, fmt.Errorf("show visitor counter: %w", err)
	}
	w.logger.Info("visitor counter", zap.Int64("visitor-counter", int64(count)))
	return count, nil
}
