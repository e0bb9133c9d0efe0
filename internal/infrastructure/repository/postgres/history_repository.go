package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ainative-textbook/chatbot-service/internal/core/domain"
)

// HistoryRepository appends completed chat queries to Postgres. Logging is
// best-effort; the chat path never fails because of it.
type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *HistoryRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api instances.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082801)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS chat_history (
	id TEXT PRIMARY KEY,
	user_id TEXT,
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	language TEXT NOT NULL,
	outcome TEXT NOT NULL,
	source_count INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chat_history_user_id ON chat_history(user_id);
CREATE INDEX IF NOT EXISTS idx_chat_history_created_at ON chat_history(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *HistoryRepository) Append(ctx context.Context, record domain.ChatRecord) error {
	var userID sql.NullString
	if record.UserID != "" {
		userID = sql.NullString{String: record.UserID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO chat_history (
	id, user_id, question, answer, language, outcome, source_count, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
		record.ID, userID, record.Question, record.Answer,
		string(record.Language), string(record.Outcome), record.SourceCount, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert chat record: %w", err)
	}
	return nil
}
