package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cwrk-planet/board-service/internal/domain"
	"github.com/cwrk-planet/board-service/internal/mocks"
	"github.com/cwrk-planet/board-service/internal/storage"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func setup(t *testing.T) (*mocks.MockRepository, *BoardService) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	return repo, NewBoardService(repo)
}

func TestBoardService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("should persist trimmed input", func(t *testing.T) {
		req := require.New(t)
		repo, svc := setup(t)
		stored := &domain.Message{ID: "1", Author: "Ann", Title: "Hi", Body: "hello", CreatedAt: time.Now()}

		repo.EXPECT().
			Insert(ctx, domain.MessageInput{Author: "Ann", Title: "Hi", Body: "hello"}).
			Return(stored, nil).
			Times(1)

		got, err := svc.Create(ctx, domain.MessageInput{Author: " Ann", Title: "Hi ", Body: " hello "})
		req.NoError(err)
		req.Equal(stored, got)
	})

	t.Run("should reject empty author or message before the store", func(t *testing.T) {
		req := require.New(t)
		repo, svc := setup(t)
		repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Times(0)

		_, err := svc.Create(ctx, domain.MessageInput{Title: "Hi", Body: "hello"})
		req.ErrorIs(err, domain.ErrValidation)

		_, err = svc.Create(ctx, domain.MessageInput{Author: "Ann", Title: "Hi"})
		req.ErrorIs(err, domain.ErrValidation)
	})

	t.Run("should wrap store failures", func(t *testing.T) {
		req := require.New(t)
		repo, svc := setup(t)
		repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil, errors.New("write failed"))

		_, err := svc.Create(ctx, domain.MessageInput{Author: "Ann", Body: "hello"})
		req.ErrorIs(err, domain.ErrStore)
		req.ErrorContains(err, "write failed")
	})
}

func TestBoardService_Recent(t *testing.T) {
	ctx := context.Background()

	t.Run("should clamp the limit", func(t *testing.T) {
		req := require.New(t)
		repo, svc := setup(t)
		repo.EXPECT().Recent(ctx, MaxRecent).Return([]domain.Message{{ID: "1"}}, nil).Times(2)
		repo.EXPECT().Recent(ctx, 5).Return([]domain.Message{{ID: "1"}}, nil)

		_, err := svc.Recent(ctx, 1000)
		req.NoError(err)
		_, err = svc.Recent(ctx, 0)
		req.NoError(err)
		_, err = svc.Recent(ctx, 5)
		req.NoError(err)
	})

	t.Run("should return an empty slice for an empty store", func(t *testing.T) {
		req := require.New(t)
		repo, svc := setup(t)
		repo.EXPECT().Recent(ctx, MaxRecent).Return(nil, nil)

		got, err := svc.Recent(ctx, MaxRecent)
		req.NoError(err)
		req.NotNil(got)
		req.Empty(got)
	})

	t.Run("should keep unavailable distinct from store errors", func(t *testing.T) {
		req := require.New(t)
		down := storage.Unavailable(errors.New("no route to host"))

		_, err := NewBoardService(down).Recent(ctx, 10)
		req.ErrorIs(err, domain.ErrStoreUnavailable)
		req.NotErrorIs(err, domain.ErrStore)
	})
}

func TestBoardService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("should treat not found as success", func(t *testing.T) {
		repo, svc := setup(t)
		repo.EXPECT().Delete(ctx, "gone").Return(domain.ErrNotFound)
		require.NoError(t, svc.Delete(ctx, "gone"))
	})

	t.Run("should surface store failures", func(t *testing.T) {
		repo, svc := setup(t)
		repo.EXPECT().Delete(ctx, "42").Return(errors.New("timeout"))
		require.ErrorIs(t, svc.Delete(ctx, "42"), domain.ErrStore)
	})
}
