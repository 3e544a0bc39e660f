package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cwrk-planet/board-service/internal/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	msgPrefix = "msg:"
	idPrefix  = "id:"
)

// MessageStore keeps messages in an embedded badger database.
//
// Each message is written under "msg:{unix_nanos_19}:{uuid}" so a reverse
// prefix scan yields newest first; the uuid breaks ties between messages
// created in the same nanosecond. "id:{uuid}" points back at the message key
// so Delete does not need a scan.
type MessageStore struct {
	db *badger.DB

	mu   sync.Mutex
	last time.Time
}

func Open(dir string) (*MessageStore, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(slogAdapter{l: slog.Default().With("component", "badger")}).
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger %q: %w", dir, err)
	}
	return NewMessageStore(db), nil
}

func NewMessageStore(db *badger.DB) *MessageStore {
	return &MessageStore{db: db}
}

type record struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

func messageKey(at time.Time, id string) []byte {
	return fmt.Appendf(nil, "%s%019d:%s", msgPrefix, at.UnixNano(), id)
}

func indexKey(id string) []byte {
	return []byte(idPrefix + id)
}

func (s *MessageStore) Insert(ctx context.Context, in domain.MessageInput) (*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec := record{
		ID:        uuid.NewString(),
		Author:    in.Author,
		Title:     in.Title,
		Message:   in.Body,
		CreatedAt: s.now(),
	}
	value, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	key := messageKey(rec.CreatedAt, rec.ID)

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, value); err != nil {
			return err
		}
		return txn.Set(indexKey(rec.ID), key)
	})
	if err != nil {
		return nil, err
	}

	m := rec.toDomain()
	return &m, nil
}

// now never repeats a timestamp, so key order is insertion order.
func (s *MessageStore) now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := time.Now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Nanosecond)
	}
	s.last = t
	return t
}

func (s *MessageStore) Recent(ctx context.Context, limit int) ([]domain.Message, error) {
	out := make([]domain.Message, 0, limit)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(msgPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// past the newest possible timestamp, then walk back
		for it.Seek([]byte(msgPrefix + "9999999999999999999")); it.ValidForPrefix(opts.Prefix); it.Next() {
			if len(out) == limit {
				break
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec record
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &rec)
			})
			if err != nil {
				return err
			}
			out = append(out, rec.toDomain())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MessageStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(indexKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		key, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		return txn.Delete(indexKey(id))
	})
}

func (s *MessageStore) Ping(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger: database closed")
	}
	return nil
}

func (s *MessageStore) Close() error {
	return s.db.Close()
}

func (r record) toDomain() domain.Message {
	return domain.Message{
		ID:        r.ID,
		Author:    r.Author,
		Title:     r.Title,
		Body:      r.Message,
		CreatedAt: r.CreatedAt,
	}
}

// slogAdapter routes badger's printf-style logger into slog.
type slogAdapter struct {
	l *slog.Logger
}

func (a slogAdapter) Errorf(f string, v ...any)   { a.l.Error(fmt.Sprintf(f, v...)) }
func (a slogAdapter) Warningf(f string, v ...any) { a.l.Warn(fmt.Sprintf(f, v...)) }
func (a slogAdapter) Infof(f string, v ...any)    { a.l.Info(fmt.Sprintf(f, v...)) }
func (a slogAdapter) Debugf(f string, v ...any)   { a.l.Debug(fmt.Sprintf(f, v...)) }
