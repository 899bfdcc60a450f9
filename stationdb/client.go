// Package stationdb persists the train and station documents in SQLite. It is
// the alternative to the JSON file persister and saves both documents in one
// transaction.
package stationdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"railbook.dev/railbook/internal/logging"
	"railbook.dev/railbook/internal/store"
)

// Client is the SQLite-backed store.Persister.
type Client struct {
	config Config
	DB     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// DocumentInfo describes one stored document without its body.
type DocumentInfo struct {
	Name      string
	Size      int
	UpdatedAt time.Time
}

// NewClient opens the database at config.DBPath and applies the schema. A nil
// logger falls back to slog.Default.
func NewClient(config Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "stationdb"))

	db, err := createDB(config, logger)
	if err != nil {
		return nil, fmt.Errorf("unable to create DB: %w", err)
	}

	return &Client{
		config: config,
		DB:     db,
		logger: logger,
		now:    time.Now,
	}, nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}

func (c *Client) GetDBPath() string {
	return c.config.DBPath
}

// Load returns the body of the named document.
func (c *Client) Load(ctx context.Context, name string) ([]byte, error) {
	var body []byte
	err := c.DB.QueryRowContext(ctx, "SELECT body FROM documents WHERE name = ?", name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", name, store.ErrDocumentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading document %s: %w", name, err)
	}
	return body, nil
}

// Save replaces every given document inside a single transaction.
func (c *Client) Save(ctx context.Context, docs []store.Document) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return &store.PersistError{Err: fmt.Errorf("begin transaction: %w", err)}
	}
	defer logging.SafeRollbackWithLogging(tx, c.logger, "save_documents")

	updatedAt := c.now().UnixMilli()
	for _, doc := range docs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO documents (name, body, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
			doc.Name, doc.Body, updatedAt)
		if err != nil {
			return &store.PersistError{Document: doc.Name, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &store.PersistError{Err: fmt.Errorf("commit: %w", err)}
	}
	return nil
}

// Documents lists every stored document by name with its size and last save time.
func (c *Client) Documents(ctx context.Context) ([]DocumentInfo, error) {
	rows, err := c.DB.QueryContext(ctx, "SELECT name, length(body), updated_at FROM documents ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows, c.logger, "database_rows")

	var docs []DocumentInfo
	for rows.Next() {
		var doc DocumentInfo
		var updatedAt int64
		if err := rows.Scan(&doc.Name, &doc.Size, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.UpdatedAt = time.UnixMilli(updatedAt)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
