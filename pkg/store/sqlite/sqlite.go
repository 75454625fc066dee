// Package sqlite provides a SQLite persistence backend for the memory
// store.
//
// SQLite is a lightweight, file-based database suitable for local
// development and single-node deployments. Embeddings and structured content
// are stored as JSON in TEXT columns; all querying and ranking happens in
// the engine, so the backend only has to load, save and delete rows.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/agentmind/agentmind-go/pkg/store"
)

// Backend implements store.Backend using SQLite.
type Backend struct {
	db    *sql.DB
	table string
}

// Config contains configuration for the SQLite backend.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// TableName is the name of the table storing memories (default
	// "memories").
	TableName string
}

// NewBackend opens (creating if necessary) the SQLite database and ensures
// the memories table exists.
func NewBackend(cfg *Config) (*Backend, error) {
	table := cfg.TableName
	if table == "" {
		table = "memories"
	}

	dbDir := filepath.Dir(cfg.DBPath)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("sqlite: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_foreign_keys=1&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	b := &Backend{db: db, table: table}
	if err := b.initTables(context.Background()); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Backend) initTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			text TEXT NOT NULL,
			metadata TEXT,
			embedding TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			size INTEGER NOT NULL
		)
	`, b.table)

	if _, err := b.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("sqlite: init tables: %w", err)
	}

	indexQuery := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS idx_%s_created_at ON %s(created_at)
	`, b.table, b.table)
	if _, err := b.db.ExecContext(ctx, indexQuery); err != nil {
		return fmt.Errorf("sqlite: init tables: %w", err)
	}

	return nil
}

// Load returns every persisted record.
func (b *Backend) Load(ctx context.Context) ([]*store.Record, error) {
	query := fmt.Sprintf(`
		SELECT id, content, text, metadata, embedding, created_at, size
		FROM %s
		ORDER BY created_at
	`, b.table)

	rows, err := b.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*store.Record
	for rows.Next() {
		var (
			rec          store.Record
			contentJSON  string
			metadataJSON sql.NullString
			embeddingStr string
		)
		if err := rows.Scan(&rec.ID, &contentJSON, &rec.Text, &metadataJSON, &embeddingStr, &rec.CreatedAt, &rec.Size); err != nil {
			return nil, fmt.Errorf("sqlite: scan: %w", err)
		}

		if err := json.Unmarshal([]byte(contentJSON), &rec.Content); err != nil {
			return nil, fmt.Errorf("sqlite: parse content for %q: %w", rec.ID, err)
		}
		if err := json.Unmarshal([]byte(embeddingStr), &rec.Embedding); err != nil {
			return nil, fmt.Errorf("sqlite: parse embedding for %q: %w", rec.ID, err)
		}
		if metadataJSON.Valid && metadataJSON.String != "" {
			var raw map[string]interface{}
			if err := json.Unmarshal([]byte(metadataJSON.String), &raw); err != nil {
				return nil, fmt.Errorf("sqlite: parse metadata for %q: %w", rec.ID, err)
			}
			meta, err := store.ParseMetadata(raw)
			if err != nil {
				return nil, fmt.Errorf("sqlite: metadata for %q: %w", rec.ID, err)
			}
			rec.Meta = meta
		}

		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: load: %w", err)
	}

	return records, nil
}

// Save inserts the record or replaces the row with the same id.
func (b *Backend) Save(ctx context.Context, rec *store.Record) error {
	contentJSON, err := json.Marshal(rec.Content)
	if err != nil {
		return fmt.Errorf("sqlite: marshal content: %w", err)
	}
	metadataJSON, err := json.Marshal(rec.Meta.Map())
	if err != nil {
		return fmt.Errorf("sqlite: marshal metadata: %w", err)
	}
	embeddingJSON, err := json.Marshal(rec.Embedding)
	if err != nil {
		return fmt.Errorf("sqlite: marshal embedding: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, content, text, metadata, embedding, created_at, size)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			text = excluded.text,
			metadata = excluded.metadata,
			embedding = excluded.embedding,
			size = excluded.size
	`, b.table)

	_, err = b.db.ExecContext(ctx, query,
		rec.ID,
		string(contentJSON),
		rec.Text,
		string(metadataJSON),
		string(embeddingJSON),
		rec.CreatedAt,
		rec.Size,
	)
	if err != nil {
		return fmt.Errorf("sqlite: save: %w", err)
	}
	return nil
}

// Delete removes the row with the given id, if present.
func (b *Backend) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", b.table)
	if _, err := b.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("sqlite: delete: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (b *Backend) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
