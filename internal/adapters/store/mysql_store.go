package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/mikey/newsletter-funnels/internal/core"
	"go.uber.org/zap"
)

// MySQLStore is a MySQL implementation of the catalog and funnel repositories
type MySQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLStore connects to MySQL and creates the schema if needed
func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	// Timestamps are scanned into time.Time, so force parseTime on whatever DSN we got
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid MySQL DSN: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS items (
			id VARCHAR(64) PRIMARY KEY,
			sender_email VARCHAR(255) NOT NULL,
			sender_name VARCHAR(255) NOT NULL DEFAULT '',
			subject TEXT NOT NULL,
			category VARCHAR(128) NOT NULL DEFAULT '',
			sent_at DATETIME(6) NOT NULL,
			body_ref VARCHAR(512) NOT NULL DEFAULT '',
			preview TEXT NOT NULL,
			INDEX idx_items_sent_at (sent_at)
		)`,
		`CREATE TABLE IF NOT EXISTS funnels (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			color VARCHAR(32) NOT NULL DEFAULT '',
			selected_ids JSON NOT NULL,
			sender_email VARCHAR(255) NOT NULL DEFAULT '',
			sender_name VARCHAR(255) NOT NULL DEFAULT '',
			total_emails INT NOT NULL,
			first_email_at DATETIME(6) NOT NULL,
			last_email_at DATETIME(6) NOT NULL,
			avg_interval_hours INT NULL,
			total_duration_days INT NULL,
			created_at DATETIME(6) NOT NULL,
			updated_at DATETIME(6) NOT NULL,
			INDEX idx_funnels_updated_at (updated_at)
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &MySQLStore{
		db:     db,
		logger: logger,
	}, nil
}

// ListItems returns every captured item, newest first
func (s *MySQLStore) ListItems(ctx context.Context) ([]core.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender_email, sender_name, subject, category, sent_at, body_ref, preview
		FROM items
		ORDER BY sent_at DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	items := make([]core.Item, 0)
	for rows.Next() {
		var item core.Item
		if err := rows.Scan(&item.ID, &item.SenderEmail, &item.SenderName, &item.Subject,
			&item.Category, &item.Timestamp, &item.BodyRef, &item.Preview); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}

	return items, nil
}

// GetItem retrieves a single item by id
func (s *MySQLStore) GetItem(ctx context.Context, id string) (*core.Item, error) {
	var item core.Item
	err := s.db.QueryRowContext(ctx, `
		SELECT id, sender_email, sender_name, subject, category, sent_at, body_ref, preview
		FROM items
		WHERE id = ?
	`, id).Scan(&item.ID, &item.SenderEmail, &item.SenderName, &item.Subject,
		&item.Category, &item.Timestamp, &item.BodyRef, &item.Preview)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query item: %w", err)
	}

	return &item, nil
}

// SaveItem stores a captured item
func (s *MySQLStore) SaveItem(ctx context.Context, item *core.Item) error {
	if err := validateItem(item); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, sender_email, sender_name, subject, category, sent_at, body_ref, preview)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			sender_email = VALUES(sender_email),
			sender_name = VALUES(sender_name),
			subject = VALUES(subject),
			category = VALUES(category),
			sent_at = VALUES(sent_at),
			body_ref = VALUES(body_ref),
			preview = VALUES(preview)
	`, item.ID, item.SenderEmail, item.SenderName, item.Subject, item.Category,
		item.Timestamp.UTC(), item.BodyRef, item.Preview)
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}

	return nil
}

// SaveFunnel creates or updates a funnel by ID
func (s *MySQLStore) SaveFunnel(ctx context.Context, funnel *core.Funnel) error {
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
		ON DUPLICATE KEY UPDATE
			name = VALUES(name),
			description = VALUES(description),
			color = VALUES(color),
			selected_ids = VALUES(selected_ids),
			sender_email = VALUES(sender_email),
			sender_name = VALUES(sender_name),
			total_emails = VALUES(total_emails),
			first_email_at = VALUES(first_email_at),
			last_email_at = VALUES(last_email_at),
			avg_interval_hours = VALUES(avg_interval_hours),
			total_duration_days = VALUES(total_duration_days),
			updated_at = VALUES(updated_at)
	`, funnel.ID, funnel.Name, funnel.Description, funnel.Color, selected,
		funnel.SenderEmail, funnel.SenderName, funnel.TotalEmails,
		funnel.FirstEmailAt.UTC(), funnel.LastEmailAt.UTC(),
		nullableInt(funnel.AvgIntervalHours), nullableInt(funnel.TotalDurationDays),
		funnel.CreatedAt.UTC(), funnel.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save funnel: %w", err)
	}

	return nil
}

// GetFunnel retrieves a funnel by ID
func (s *MySQLStore) GetFunnel(ctx context.Context, id string) (*core.Funnel, error) {
	row := s.db.QueryRowContext(ctx, mysqlFunnelSelect+` WHERE id = ?`, id)

	funnel, err := scanMySQLFunnel(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return funnel, nil
}

// ListFunnels returns every funnel, most recently updated first
func (s *MySQLStore) ListFunnels(ctx context.Context) ([]core.Funnel, error) {
	rows, err := s.db.QueryContext(ctx, mysqlFunnelSelect+` ORDER BY updated_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query funnels: %w", err)
	}
	defer rows.Close()

	funnels := make([]core.Funnel, 0)
	for rows.Next() {
		funnel, err := scanMySQLFunnel(rows)
		if err != nil {
			return nil, err
		}
		funnels = append(funnels, *funnel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read funnels: %w", err)
	}

	return funnels, nil
}

// Stop closes the database connection
func (s *MySQLStore) Stop() {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close MySQL database", zap.Error(err))
	}
}

const mysqlFunnelSelect = `
	SELECT id, name, description, color, selected_ids, sender_email, sender_name,
		total_emails, first_email_at, last_email_at, avg_interval_hours, total_duration_days,
		created_at, updated_at
	FROM funnels`

func scanMySQLFunnel(row rowScanner) (*core.Funnel, error) {
	var funnel core.Funnel
	var selected string
	var avg, days sql.NullInt64

	if err := row.Scan(&funnel.ID, &funnel.Name, &funnel.Description, &funnel.Color, &selected,
		&funnel.SenderEmail, &funnel.SenderName, &funnel.TotalEmails,
		&funnel.FirstEmailAt, &funnel.LastEmailAt, &avg, &days,
		&funnel.CreatedAt, &funnel.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan funnel: %w", err)
	}

	var err error
	if funnel.SelectedIDs, err = decodeIDs(selected); err != nil {
		return nil, err
	}
	funnel.AvgIntervalHours = intFromNull(avg)
	funnel.TotalDurationDays = intFromNull(days)

	return &funnel, nil
}
