//go:generate go run go.uber.org/mock/mockgen -source=storage.go -destination=../mocks/mock_repository.go -package=mocks
package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/cwrk-planet/board-service/internal/domain"
	"github.com/cwrk-planet/board-service/internal/storage/badger"
	"github.com/cwrk-planet/board-service/internal/storage/mongo"
	"github.com/cwrk-planet/board-service/internal/storage/postgres"
)

// Repository is the persistent collection of board messages.
type Repository interface {
	Insert(ctx context.Context, in domain.MessageInput) (*domain.Message, error)
	// Recent returns at most limit messages, newest first.
	Recent(ctx context.Context, limit int) ([]domain.Message, error)
	// Delete removes a message. Unknown or malformed ids are not an error.
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}

// Open picks a backend from the URI scheme:
//
//	postgres://, postgresql://    pgx pool
//	mongodb://, mongodb+srv://    mongo collection
//	badger://<dir>                embedded badger
//
// Network backends connect lazily, so a down server is reported by Ping, not here.
func Open(ctx context.Context, uri string) (Repository, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parse store uri: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		return postgres.New(ctx, uri)
	case "mongodb", "mongodb+srv":
		return mongo.New(ctx, uri)
	case "badger":
		return badger.Open(badgerPath(u))
	default:
		return nil, fmt.Errorf("unsupported store scheme %q", u.Scheme)
	}
}

// badger://./data -> ./data, badger:///var/lib/board -> /var/lib/board
func badgerPath(u *url.URL) string {
	if u.Opaque != "" {
		return u.Opaque
	}
	return u.Host + u.Path
}

type unavailable struct {
	err error
}

// Unavailable returns a Repository that fails every call with
// domain.ErrStoreUnavailable wrapping cause. It stands in when Open fails at
// startup so the process keeps serving and errors surface per request.
func Unavailable(cause error) Repository {
	return unavailable{err: fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, cause)}
}

func (u unavailable) Insert(context.Context, domain.MessageInput) (*domain.Message, error) {
	return nil, u.err
}

func (u unavailable) Recent(context.Context, int) ([]domain.Message, error) {
	return nil, u.err
}

func (u unavailable) Delete(context.Context, string) error { return u.err }
func (u unavailable) Ping(context.Context) error           { return u.err }
func (u unavailable) Close() error                         { return nil }
