package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terngkub/the-cloud-resume-challenge/pkg/models"
)

type recordingSink struct {
	mu      sync.Mutex
	batches [][]models.VisitorCount
	err     error
}

func (s *recordingSink) Save(_ context.Context, batch []models.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make([]models.VisitorCount, 0, len(batch))
	for _, r := range batch {
		counts = append(counts, r.Count)
	}
	s.batches = append(s.batches, counts)
	return s.err
}

func (s *recordingSink) snapshot() [][]models.VisitorCount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]models.VisitorCount(nil), s.batches...)
}

func TestSaveWorker_FlushesOnSizeAndClose(t *testing.T) {
	sink := &recordingSink{}
	in := make(chan models.Reading)
	done := StartSaveWorker(context.Background(), sink, in, 2, time.Hour, nil)

	for i := 1; i <= 5; i++ {
		in <- models.Reading{Count: models.VisitorCount(i)}
	}
	close(in)
	<-done

	assert.Equal(t, [][]models.VisitorCount{{1, 2}, {3, 4}, {5}}, sink.snapshot())
}

func TestSaveWorker_FlushesOnTick(t *testing.T) {
	sink := &recordingSink{}
	in := make(chan models.Reading)
	done := StartSaveWorker(context.Background(), sink, in, 10, 10*time.Millisecond, nil)

	in <- models.Reading{Count: 1}
	require.Eventually(t, func() bool { return len(sink.snapshot()) == 1 }, time.Second, 5*time.Millisecond)

	close(in)
	<-done
	assert.Equal(t, [][]models.VisitorCount{{1}}, sink.snapshot())
}

func TestSaveWorker_FlushesOnCancel(t *testing.T) {
	sink := &recordingSink{}
	in := make(chan models.Reading)
	ctx, cancel := context.WithCancel(context.Background())
	done := StartSaveWorker(ctx, sink, in, 10, time.Hour, nil)

	in <- models.Reading{Count: 7}
	cancel()
	<-done

	assert.Equal(t, [][]models.VisitorCount{{7}}, sink.snapshot())
}

func TestSaveWorker_KeepsGoingAfterSaveError(t *testing.T) {
	sink := &recordingSink{err: errors.New("db down")}
	in := make(chan models.Reading)
	done := StartSaveWorker(context.Background(), sink, in, 1, time.Hour, nil)

	in <- models.Reading{Count: 1}
	in <- models.Reading{Count: 2}
	close(in)
	<-done

	assert.Equal(t, [][]models.VisitorCount{{1}, {2}}, sink.snapshot())
}

func TestSaveWorker_WritesToStore(t *testing.T) {
	store := openMemory(t)
	in := make(chan models.Reading)
	done := StartSaveWorker(context.Background(), store, in, 2, time.Hour, nil)

	at := time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		in <- models.Reading{PageURL: pageURL, Count: models.VisitorCount(10 + i), ObservedAt: at.Add(time.Duration(i) * time.Second)}
	}
	close(in)
	<-done

	got, err := store.Readings(context.Background(), pageURL)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, models.VisitorCount(12), got[2].Count)
}

func TestSaveWorker_CancelSavesQueuedReadings(t *testing.T) {
	// Cancellation and queued readings race inside the worker's select,
	// so repeat to hit both orders.
	for run := 0; run < 50; run++ {
		sink := &recordingSink{}
		in := make(chan models.Reading, 3)
		for i := 1; i <= 3; i++ {
			in <- models.Reading{Count: models.VisitorCount(i)}
		}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		<-StartSaveWorker(ctx, sink, in, 10, time.Hour, nil)

		var saved []models.VisitorCount
		for _, batch := range sink.snapshot() {
			saved = append(saved, batch...)
		}
		require.Equal(t, []models.VisitorCount{1, 2, 3}, saved, "run %d", run)
	}
}

func TestSaveWorker_FixesBadSettings(t *testing.T) {
	sink := &recordingSink{}
	in := make(chan models.Reading)

	var done <-chan struct{}
	require.NotPanics(t, func() {
		done = StartSaveWorker(context.Background(), sink, in, -1, 0, nil)
	})

	in <- models.Reading{Count: 1}
	in <- models.Reading{Count: 2}
	close(in)
	<-done

	assert.Equal(t, [][]models.VisitorCount{{1}, {2}}, sink.snapshot())
}
