package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/terngkub/the-cloud-resume-challenge/pkg/models"
)

// Sink persists a batch of readings.
type Sink interface {
	Save(ctx context.Context, batch []models.Reading) error
}

// defaultFlushEvery is used when flushEvery is not positive.
const defaultFlushEvery = 2 * time.Second

// StartSaveWorker buffers readings from in and hands them to sink when the
// buffer reaches batchSize, when flushEvery elapses, and once more when in is
// closed or ctx is done. On ctx done, readings already queued in in are saved
// too. batchSize below 1 means 1. The returned channel closes after the last
// flush.
func StartSaveWorker(
	ctx context.Context,
	sink Sink,
	in <-chan models.Reading,
	batchSize int,
	flushEvery time.Duration,
	logger *zap.Logger,
) <-chan struct{} {
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchSize < 1 {
		batchSize = 1
	}
	if flushEvery <= 0 {
		flushEvery = defaultFlushEvery
	}
	done := make(chan struct{})

	go func() {
		defer close(done)
		buffer := make([]models.Reading, 0, batchSize)
		ticker := time.NewTicker(flushEvery)
		defer ticker.Stop()

		flush := func(ctx context.Context) {
			if len(buffer) == 0 {
				return
			}
			if err := sink.Save(ctx, buffer); err != nil {
				logger.Error("failed to save batch", zap.Int("size", len(buffer)), zap.Error(err))
			} else {
				logger.Debug("saved batch", zap.Int("size", len(buffer)))
			}
			buffer = buffer[:0]
		}

		for {
			select {
			case <-ctx.Done():
				// Take whatever is already queued, then flush it all.
				for drained := false; !drained; {
					select {
					case r, ok := <-in:
						if !ok {
							drained = true
							break
						}
						buffer = append(buffer, r)
					default:
						drained = true
					}
				}
				flush(context.WithoutCancel(ctx))
				return
			case r, ok := <-in:
				if !ok {
					flush(ctx)
					return
				}
				buffer = append(buffer, r)
				if len(buffer) >= batchSize {
					flush(ctx)
				}
			case <-ticker.C:
				flush(ctx)
			}
		}
	}()

	return done
}
