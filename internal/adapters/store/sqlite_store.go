package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/newsletter-funnels/internal/core"
	"go.uber.org/zap"
)

// SQLiteStore is a SQLite implementation of the catalog and funnel repositories
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (and if needed creates) the SQLite database at dbPath
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			sender_email TEXT NOT NULL,
			sender_name TEXT NOT NULL DEFAULT '',
			subject TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			sent_at TEXT NOT NULL,
			body_ref TEXT NOT NULL DEFAULT '',
			preview TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_sent_at ON items(sent_at)`,
		`CREATE TABLE IF NOT EXISTS funnels (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			color TEXT NOT NULL DEFAULT '',
			selected_ids TEXT NOT NULL,
			sender_email TEXT NOT NULL DEFAULT '',
			sender_name TEXT NOT NULL DEFAULT '',
			total_emails INTEGER NOT NULL,
			first_email_at TEXT NOT NULL,
			last_email_at TEXT NOT NULL,
			avg_interval_hours INTEGER,
			total_duration_days INTEGER,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &SQLiteStore{
		db:     db,
		logger: logger,
	}, nil
}

// ListItems returns every captured item, newest first
func (s *SQLiteStore) ListItems(ctx context.Context) ([]core.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender_email, sender_name, subject, category, sent_at, body_ref, preview
		FROM items
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	items := make([]core.Item, 0)
	for rows.Next() {
		item, err := scanSQLiteItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}

	// Sorted in Go so mixed timezone offsets in stored text still order correctly
	sortNewestFirst(items)
	return items, nil
}

// GetItem retrieves a single item by id
func (s *SQLiteStore) GetItem(ctx context.Context, id string) (*core.Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, sender_email, sender_name, subject, category, sent_at, body_ref, preview
		FROM items
		WHERE id = ?
	`, id)

	item, err := scanSQLiteItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	return item, err
}

// SaveItem stores a captured item
func (s *SQLiteStore) SaveItem(ctx context.Context, item *core.Item) error {
	if err := validateItem(item); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO items (id, sender_email, sender_name, subject, category, sent_at, body_ref, preview)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.SenderEmail, item.SenderName, item.Subject, item.Category,
		formatTime(item.Timestamp), item.BodyRef, item.Preview)
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}

	return nil
}

// SaveFunnel creates or updates a funnel by ID
func (s *SQLiteStore) SaveFunnel(ctx context.Context, funnel *core.Funnel) error {
	if err := validateFunnel(funnel); err != nil {
		return err
	}

	selected, err := encodeIDs(funnel.SelectedIDs)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO funnels (id, name, description, color, selected_ids, sender_email, sender_name,
			total_emails, first_email_at, last_email_at, avg_interval_hours, total_duration_days,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			color = excluded.color,
			selected_ids = excluded.selected_ids,
			sender_email = excluded.sender_email,
			sender_name = excluded.sender_name,
			total_emails = excluded.total_emails,
			first_email_at = excluded.first_email_at,
			last_email_at = excluded.last_email_at,
			avg_interval_hours = excluded.avg_interval_hours,
			total_duration_days = excluded.total_duration_days,
			updated_at = excluded.updated_at
	`, funnel.ID, funnel.Name, funnel.Description, funnel.Color, selected,
		funnel.SenderEmail, funnel.SenderName, funnel.TotalEmails,
		formatTime(funnel.FirstEmailAt), formatTime(funnel.LastEmailAt),
		nullableInt(funnel.AvgIntervalHours), nullableInt(funnel.TotalDurationDays),
		formatTime(funnel.CreatedAt), formatTime(funnel.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save funnel: %w", err)
	}

	return nil
}

// GetFunnel retrieves a funnel by ID
func (s *SQLiteStore) GetFunnel(ctx context.Context, id string) (*core.Funnel, error) {
	row := s.db.QueryRowContext(ctx, sqliteFunnelSelect+` WHERE id = ?`, id)

	funnel, err := scanSQLiteFunnel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	return funnel, err
}

// ListFunnels returns every funnel, most recently updated first
func (s *SQLiteStore) ListFunnels(ctx context.Context) ([]core.Funnel, error) {
	rows, err := s.db.QueryContext(ctx, sqliteFunnelSelect)
	if err != nil {
		return nil, fmt.Errorf("failed to query funnels: %w", err)
	}
	defer rows.Close()

	funnels := make([]core.Funnel, 0)
	for rows.Next() {
		funnel, err := scanSQLiteFunnel(rows)
		if err != nil {
			return nil, err
		}
		funnels = append(funnels, *funnel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read funnels: %w", err)
	}

	sortRecentlyUpdated(funnels)
	return funnels, nil
}

// Stop closes the database connection
func (s *SQLiteStore) Stop() {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close SQLite database", zap.Error(err))
	}
}

const sqliteFunnelSelect = `
	SELECT id, name, description, color, selected_ids, sender_email, sender_name,
		total_emails, first_email_at, last_email_at, avg_interval_hours, total_duration_days,
		created_at, updated_at
	FROM funnels`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteItem(row rowScanner) (*core.Item, error) {
	var item core.Item
	var sentAt string

	if err := row.Scan(&item.ID, &item.SenderEmail, &item.SenderName, &item.Subject,
		&item.Category, &sentAt, &item.BodyRef, &item.Preview); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan item: %w", err)
	}

	var err error
	if item.Timestamp, err = parseTime(sentAt); err != nil {
		return nil, fmt.Errorf("failed to parse sent_at for item %s: %w", item.ID, err)
	}
	return &item, nil
}

func scanSQLiteFunnel(row rowScanner) (*core.Funnel, error) {
	var funnel core.Funnel
	var selected, firstAt, lastAt, createdAt, updatedAt string
	var avg, days sql.NullInt64

	if err := row.Scan(&funnel.ID, &funnel.Name, &funnel.Description, &funnel.Color, &selected,
		&funnel.SenderEmail, &funnel.SenderName, &funnel.TotalEmails, &firstAt, &lastAt,
		&avg, &days, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan funnel: %w", err)
	}

	var err error
	if funnel.SelectedIDs, err = decodeIDs(selected); err != nil {
		return nil, err
	}
	for _, field := range []struct {
		dst *time.Time
		src string
	}{
		{&funnel.FirstEmailAt, firstAt},
		{&funnel.LastEmailAt, lastAt},
		{&funnel.CreatedAt, createdAt},
		{&funnel.UpdatedAt, updatedAt},
	} {
		if *field.dst, err = parseTime(field.src); err != nil {
			return nil, fmt.Errorf("failed to parse timestamp for funnel %s: %w", funnel.ID, err)
		}
	}
	funnel.AvgIntervalHours = intFromNull(avg)
	funnel.TotalDurationDays = intFromNull(days)

	return &funnel, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
