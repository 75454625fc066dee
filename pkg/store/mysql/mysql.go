// Package mysql provides a MySQL-compatible persistence backend for the
// memory store. It works against stock MySQL as well as MySQL-protocol
// databases such as OceanBase.
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"github.com/agentmind/agentmind-go/pkg/store"
)

// Backend implements store.Backend using MySQL.
type Backend struct {
	db    *sql.DB
	table string
}

// Config contains MySQL connection configuration.
type Config struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	TableName string
}

// NewBackend connects to MySQL and ensures the memories table exists.
func NewBackend(cfg *Config) (*Backend, error) {
	table := cfg.TableName
	if table == "" {
		table = "memories"
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("mysql: ping: %w", err)
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
			id VARCHAR(255) PRIMARY KEY,
			content JSON NOT NULL,
			text_content TEXT NOT NULL,
			metadata JSON,
			embedding JSON NOT NULL,
			created_at DATETIME(6) NOT NULL,
			size BIGINT NOT NULL,
			INDEX idx_created_at (created_at)
		)
	`, b.table)

	if _, err := b.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("mysql: init tables: %w", err)
	}
	return nil
}

// Load returns every persisted record.
func (b *Backend) Load(ctx context.Context) ([]*store.Record, error) {
	query := fmt.Sprintf(`
		SELECT id, content, text_content, metadata, embedding, created_at, size
		FROM %s
		ORDER BY created_at
	`, b.table)

	rows, err := b.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("mysql: load: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*store.Record
	for rows.Next() {
		var (
			rec           store.Record
			contentJSON   []byte
			metadataJSON  []byte
			embeddingJSON []byte
		)
		if err := rows.Scan(&rec.ID, &contentJSON, &rec.Text, &metadataJSON, &embeddingJSON, &rec.CreatedAt, &rec.Size); err != nil {
			return nil, fmt.Errorf("mysql: scan: %w", err)
		}

		if err := json.Unmarshal(contentJSON, &rec.Content); err != nil {
			return nil, fmt.Errorf("mysql: parse content for %q: %w", rec.ID, err)
		}
		if err := json.Unmarshal(embeddingJSON, &rec.Embedding); err != nil {
			return nil, fmt.Errorf("mysql: parse embedding for %q: %w", rec.ID, err)
		}
		if len(metadataJSON) > 0 {
			var raw map[string]interface{}
			if err := json.Unmarshal(metadataJSON, &raw); err != nil {
				return nil, fmt.Errorf("mysql: parse metadata for %q: %w", rec.ID, err)
			}
			meta, err := store.ParseMetadata(raw)
			if err != nil {
				return nil, fmt.Errorf("mysql: metadata for %q: %w", rec.ID, err)
			}
			rec.Meta = meta
		}

		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mysql: load: %w", err)
	}

	return records, nil
}

// Save inserts the record or replaces the row with the same id.
func (b *Backend) Save(ctx context.Context, rec *store.Record) error {
	contentJSON, err := json.Marshal(rec.Content)
	if err != nil {
		return fmt.Errorf("mysql: marshal content: %w", err)
	}
	metadataJSON, err := json.Marshal(rec.Meta.Map())
	if err != nil {
		return fmt.Errorf("mysql: marshal metadata: %w", err)
	}
	embeddingJSON, err := json.Marshal(rec.Embedding)
	if err != nil {
		return fmt.Errorf("mysql: marshal embedding: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, content, text_content, metadata, embedding, created_at, size)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			content = VALUES(content),
			text_content = VALUES(text_content),
			metadata = VALUES(metadata),
			embedding = VALUES(embedding),
			size = VALUES(size)
	`, b.table)

	_, err = b.db.ExecContext(ctx, query,
		rec.ID,
		contentJSON,
		rec.Text,
		metadataJSON,
		embeddingJSON,
		rec.CreatedAt,
		rec.Size,
	)
	if err != nil {
		return fmt.Errorf("mysql: save: %w", err)
	}
	return nil
}

// Delete removes the row with the given id, if present.
func (b *Backend) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", b.table)
	if _, err := b.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("mysql: delete: %w", err)
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
