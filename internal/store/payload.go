package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/codescope/codescope/internal/chunk"
)

// payloadSchema holds chunk payloads keyed by chunk ID. WAL mode keeps
// readers unblocked while an indexing run writes.
const payloadSchema = `
PRAGMA journal_mode=WAL;

CREATE TABLE IF NOT EXISTS chunks (
	id            TEXT PRIMARY KEY,
	repository_id TEXT NOT NULL,
	file_path     TEXT NOT NULL,
	language      TEXT NOT NULL,
	symbol_type   TEXT NOT NULL,
	symbol_name   TEXT NOT NULL,
	start_line    INTEGER NOT NULL,
	end_line      INTEGER NOT NULL,
	source_text   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chunks_repository ON chunks(repository_id);
`

// payloadStore persists chunk payloads in SQLite.
type payloadStore struct {
	db *sql.DB
}

// openPayloadStore opens (creating if needed) the payload database.
func openPayloadStore(path string) (*payloadStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open payload db: %w", err)
	}
	if _, err := db.Exec(payloadSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init payload schema: %w", err)
	}
	return &payloadStore{db: db}, nil
}

// saveChunks upserts payloads in one transaction.
func (s *payloadStore) saveChunks(ctx context.Context, chunks []*chunk.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin payload tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, repository_id, file_path, language, symbol_type,
			symbol_name, start_line, end_line, source_text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			repository_id=excluded.repository_id,
			file_path=excluded.file_path,
			language=excluded.language,
			symbol_type=excluded.symbol_type,
			symbol_name=excluded.symbol_name,
			start_line=excluded.start_line,
			end_line=excluded.end_line,
			source_text=excluded.source_text`)
	if err != nil {
		return fmt.Errorf("prepare payload upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.ID, c.RepositoryID, c.FilePath,
			c.Language, string(c.SymbolType), c.SymbolName,
			c.StartLine, c.EndLine, c.SourceText); err != nil {
			return fmt.Errorf("upsert chunk %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// getChunks fetches payloads for the given IDs in one query.
// Missing IDs are silently absent from the result.
func (s *payloadStore) getChunks(ctx context.Context, ids []string) (map[string]*chunk.Chunk, error) {
	if len(ids) == 0 {
		return map[string]*chunk.Chunk{}, nil
	}

	placeholders := strings.Repeat("?,", len(ids)-1) + "?"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, repository_id, file_path, language, symbol_type,
			symbol_name, start_line, end_line, source_text
		FROM chunks WHERE id IN (%s)`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("query payloads: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]*chunk.Chunk, len(ids))
	for rows.Next() {
		var c chunk.Chunk
		var symbolType string
		if err := rows.Scan(&c.ID, &c.RepositoryID, &c.FilePath, &c.Language,
			&symbolType, &c.SymbolName, &c.StartLine, &c.EndLine, &c.SourceText); err != nil {
			return nil, fmt.Errorf("scan payload: %w", err)
		}
		c.SymbolType = chunk.SymbolType(symbolType)
		result[c.ID] = &c
	}
	return result, rows.Err()
}

// count returns the number of stored payloads.
func (s *payloadStore) count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count payloads: %w", err)
	}
	return n, nil
}

// close closes the database.
func (s *payloadStore) close() error {
	return s.db.Close()
}
