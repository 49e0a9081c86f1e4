package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terngkub/the-cloud-resume-challenge/pkg/models"
)

const pageURL = "https://resume.nattapol.com"

func openMemory(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRequiresURL(t *testing.T) {
	_, err := Open(context.Background(), " ")
	assert.Error(t, err)
}

func TestSaveAndReadings(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()
	at := time.Date(2026, time.October, 14, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, []models.Reading{
		{PageURL: pageURL, Count: 4, ObservedAt: at.Add(time.Second)},
		{PageURL: pageURL, Count: 3, ObservedAt: at},
		{PageURL: "https://example.com", Count: 100, ObservedAt: at},
	}))

	got, err := store.Readings(ctx, pageURL)
	require.NoError(t, err)
	assert.Equal(t, []models.Reading{
		{PageURL: pageURL, Count: 3, ObservedAt: at},
		{PageURL: pageURL, Count: 4, ObservedAt: at.Add(time.Second)},
	}, got)
}

func TestSaveEmptyBatch(t *testing.T) {
	store := openMemory(t)

	require.NoError(t, store.Save(context.Background(), nil))

	got, err := store.Readings(context.Background(), pageURL)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOpenFileKeepsReadings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.db")
	ctx := context.Background()

	store, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, []models.Reading{{PageURL: pageURL, Count: 8, ObservedAt: time.Now()}}))
	require.NoError(t, store.Close())

	store, err = Open(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Readings(ctx, pageURL)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.VisitorCount(8), got[0].Count)
}

func TestRebind(t *testing.T) {
	pg := &Store{dialect: dialectPostgres}
	assert.Equal(t, "VALUES ($1, $2, $3)", pg.rebind("VALUES (?, ?, ?)"))

	lite := &Store{dialect: dialectSQLite}
	assert.Equal(t, "VALUES (?, ?)", lite.rebind("VALUES (?, ?)"))
}
