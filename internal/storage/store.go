package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib" // registers "pgx"
	_ "modernc.org/sqlite"             // registers "sqlite"

	"github.com/terngkub/the-cloud-resume-challenge/pkg/models"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

const createReadings = `
	CREATE TABLE IF NOT EXISTS counter_readings (
		page_url      TEXT   NOT NULL,
		visitor_count BIGINT NOT NULL,
		observed_at   BIGINT NOT NULL
	)`

// Store keeps probe readings in Postgres or SQLite.
type Store struct {
	db      *sql.DB
	dialect dialect
}

// Open connects to dsn, which is a postgres:// URL or a SQLite path
// (":memory:" included), and creates the readings table if it is missing.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("database url is required")
	}

	driver, d := "sqlite", dialectSQLite
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver, d = "pgx", dialectPostgres
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", driver, err)
	}
	if d == dialectSQLite {
		// Every SQLite connection to :memory: is its own database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", driver, err)
	}
	if _, err := db.ExecContext(ctx, createReadings); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create counter_readings: %w", err)
	}
	return &Store{db: db, dialect: d}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save writes the batch in one transaction.
func (s *Store) Save(ctx context.Context, batch []models.Reading) error {
	if len(batch) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.rebind(`
		INSERT INTO counter_readings (page_url, visitor_count, observed_at)
		VALUES (?, ?, ?)`))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range batch {
		if _, err := stmt.ExecContext(ctx, r.PageURL, int64(r.Count), r.ObservedAt.UTC().UnixMilli()); err != nil {
			return fmt.Errorf("save reading of %s: %w", r.PageURL, err)
		}
	}
	return tx.Commit()
}

// Readings returns the stored readings of a page, oldest first.
func (s *Store) Readings(ctx context.Context, pageURL string) ([]models.Reading, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT visitor_count, observed_at FROM counter_readings
		WHERE page_url = ?
		ORDER BY observed_at, visitor_count`), pageURL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Reading
	for rows.Next() {
		var count, observedAt int64
		if err := rows.Scan(&count, &observedAt); err != nil {
			return nil, err
		}
		out = append(out, models.Reading{
			PageURL:    pageURL,
			Count:      models.VisitorCount(count),
			ObservedAt: time.UnixMilli(observedAt).UTC(),
		})
	}
	return out, rows.Err()
}

// rebind turns ? placeholders into $n for Postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&sb, "$%d", n)
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
