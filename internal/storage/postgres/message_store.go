package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cwrk-planet/board-service/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	insertMessage = `
		INSERT INTO posts (author, title, message)
		VALUES ($1, $2, $3)
		RETURNING id::text, author, title, message, created_at`

	recentMessages = `
		SELECT id::text, author, title, message, created_at
		FROM posts
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	deleteMessage = `DELETE FROM posts WHERE id=$1`
)

type MessageStore struct {
	db *pgxpool.Pool

	mu       sync.Mutex
	migrated bool
}

// New opens a pool for dsn and tries to bootstrap the schema. An unreachable
// server is logged, not returned: the schema is retried on first use.
func New(ctx context.Context, dsn string) (*MessageStore, error) {
	pool, err := NewPool(ctx, Config{DSN: dsn, ApplicationName: "board-service"})
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}
	s := NewMessageStore(pool)

	if err := Ping(ctx, pool); err != nil {
		slog.Warn("postgres unreachable at startup", "err", err)
		return s, nil
	}
	if err := s.ensureSchema(ctx); err != nil {
		slog.Warn("postgres migrations failed", "err", err)
	}
	return s, nil
}

func NewMessageStore(db *pgxpool.Pool) *MessageStore {
	return &MessageStore{db: db}
}

func (s *MessageStore) ensureSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.migrated {
		return nil
	}
	if err := RunMigrations(ctx, s.db); err != nil {
		return err
	}
	s.migrated = true
	return nil
}

func (s *MessageStore) Insert(ctx context.Context, in domain.MessageInput) (*domain.Message, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}

	var m domain.Message
	err := s.db.QueryRow(ctx, insertMessage, in.Author, in.Title, in.Body).
		Scan(&m.ID, &m.Author, &m.Title, &m.Body, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *MessageStore) Recent(ctx context.Context, limit int) ([]domain.Message, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, recentMessages, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Message, 0, limit)
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.Author, &m.Title, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *MessageStore) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		// not a uuid, so it cannot be a row
		return nil
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, deleteMessage, uid.String())
	return err
}

func (s *MessageStore) Ping(ctx context.Context) error {
	return Ping(ctx, s.db)
}

func (s *MessageStore) Close() error {
	s.db.Close()
	return nil
}
