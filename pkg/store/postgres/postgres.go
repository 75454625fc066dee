// Package postgres provides a PostgreSQL persistence backend for the memory
// store.
//
// Metadata is stored as JSONB and embeddings as JSONB arrays; the engine
// does all querying and ranking in memory, so the backend stays a plain
// row store and needs no extensions.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/agentmind/agentmind-go/pkg/store"
)

// Backend implements store.Backend using PostgreSQL.
type Backend struct {
	db    *sql.DB
	table string
}

// Config contains PostgreSQL connection configuration.
type Config struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	TableName string
	SSLMode   string
}

// NewBackend connects to PostgreSQL and ensures the memories table exists.
func NewBackend(cfg *Config) (*Backend, error) {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	table := cfg.TableName
	if table == "" {
		table = "memories"
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("postgres: ping: %w", err)
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
			content JSONB NOT NULL,
			text TEXT NOT NULL,
			metadata JSONB,
			embedding JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			size BIGINT NOT NULL
		)
	`, b.table)

	if _, err := b.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("postgres: init tables: %w", err)
	}

	indexQuery := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS idx_%s_created_at ON %s(created_at)
	`, b.table, b.table)
	if _, err := b.db.ExecContext(ctx, indexQuery); err != nil {
		return fmt.Errorf("postgres: init tables: %w", err)
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
		return nil, fmt.Errorf("postgres: load: %w", err)
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
			return nil, fmt.Errorf("postgres: scan: %w", err)
		}

		if err := json.Unmarshal(contentJSON, &rec.Content); err != nil {
			return nil, fmt.Errorf("postgres: parse content for %q: %w", rec.ID, err)
		}
		if err := json.Unmarshal(embeddingJSON, &rec.Embedding); err != nil {
			return nil, fmt.Errorf("postgres: parse embedding for %q: %w", rec.ID, err)
		}
		if len(metadataJSON) > 0 {
			var raw map[string]interface{}
			if err := json.Unmarshal(metadataJSON, &raw); err != nil {
				return nil, fmt.Errorf("postgres: parse metadata for %q: %w", rec.ID, err)
			}
			meta, err := store.ParseMetadata(raw)
			if err != nil {
				return nil, fmt.Errorf("postgres: metadata for %q: %w", rec.ID, err)
			}
			rec.Meta = meta
		}

		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: load: %w", err)
	}

	return records, nil
}

// Save inserts the record or replaces the row with the same id.
func (b *Backend) Save(ctx context.Context, rec *store.Record) error {
	contentJSON, err := json.Marshal(rec.Content)
	if err != nil {
		return fmt.Errorf("postgres: marshal content: %w", err)
	}
	metadataJSON, err := json.Marshal(rec.Meta.Map())
	if err != nil {
		return fmt.Errorf("postgres: marshal metadata: %w", err)
	}
	embeddingJSON, err := json.Marshal(rec.Embedding)
	if err != nil {
		return fmt.Errorf("postgres: marshal embedding: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, content, text, metadata, embedding, created_at, size)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			text = EXCLUDED.text,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding,
			size = EXCLUDED.size
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
		return fmt.Errorf("postgres: save: %w", err)
	}
	return nil
}

// Delete removes the row with the given id, if present.
func (b *Backend) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", b.table)
	if _, err := b.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("postgres: delete: %w", err)
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
