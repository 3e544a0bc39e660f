package badger

import (
	"context"
	"testing"
	"time"

	"github.com/cwrk-planet/board-service/internal/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *MessageStore {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewMessageStore(db)
}

func Test_Recent_On_Empty_Store(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)

	messages, err := store.Recent(context.Background(), 100)
	req.NoError(err)
	req.NotNil(messages)
	req.Empty(messages)
}

func Test_Insert_Assigns_ID_And_CreatedAt(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	before := time.Now().UTC()

	m, err := store.Insert(context.Background(), domain.MessageInput{Author: "Ann", Title: "Hi", Body: "hello"})
	req.NoError(err)
	req.NotEmpty(m.ID)
	req.Equal("Ann", m.Author)
	req.Equal("Hi", m.Title)
	req.Equal("hello", m.Body)
	req.False(m.CreatedAt.Before(before))

	other, err := store.Insert(context.Background(), domain.MessageInput{Author: "Ann", Body: "hello"})
	req.NoError(err)
	req.NotEqual(m.ID, other.ID)
}

func Test_Recent_Newest_First_And_Limit(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	ctx := context.Background()

	var ids []string
	for _, author := range []string{"Alice", "Bob", "Clara"} {
		m, err := store.Insert(ctx, domain.MessageInput{Author: author, Body: "this message will self destruct"})
		req.NoError(err)
		ids = append(ids, m.ID)
	}

	all, err := store.Recent(ctx, 10)
	req.NoError(err)
	req.Len(all, 3)
	req.Equal([]string{ids[2], ids[1], ids[0]}, []string{all[0].ID, all[1].ID, all[2].ID})
	for i := 1; i < len(all); i++ {
		req.False(all[i].CreatedAt.After(all[i-1].CreatedAt))
	}

	limited, err := store.Recent(ctx, 2)
	req.NoError(err)
	req.Len(limited, 2)
	req.Equal(ids[2], limited[0].ID)
}

func Test_Delete(t *testing.T) {
	req := require.New(t)
	store := newTestStore(t)
	ctx := context.Background()

	keep, err := store.Insert(ctx, domain.MessageInput{Author: "Ann", Body: "keep"})
	req.NoError(err)
	drop, err := store.Insert(ctx, domain.MessageInput{Author: "Bob", Body: "drop"})
	req.NoError(err)

	req.NoError(store.Delete(ctx, drop.ID))
	// second delete and unknown ids are no-ops
	req.NoError(store.Delete(ctx, drop.ID))
	req.NoError(store.Delete(ctx, "does-not-exist"))

	messages, err := store.Recent(ctx, 10)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal(keep.ID, messages[0].ID)
}

func Test_Ping_After_Close(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	store := NewMessageStore(db)

	req.NoError(store.Ping(context.Background()))
	req.NoError(store.Close())
	req.Error(store.Ping(context.Background()))
}
