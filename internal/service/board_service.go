package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/cwrk-planet/board-service/internal/domain"
	"github.com/cwrk-planet/board-service/internal/storage"
)

// MaxRecent caps how many messages a replay returns.
const MaxRecent = 100

type BoardService struct {
	repo storage.Repository
}

func NewBoardService(repo storage.Repository) *BoardService {
	return &BoardService{repo: repo}
}

// Create validates in and persists it. Invalid input never reaches the store.
func (s *BoardService) Create(ctx context.Context, in domain.MessageInput) (*domain.Message, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	msg, err := s.repo.Insert(ctx, in.Normalize())
	if err != nil {
		return nil, storeErr("insert", err)
	}
	return msg, nil
}

// Recent returns up to limit messages, newest first. A limit outside
// [1, MaxRecent] means MaxRecent.
func (s *BoardService) Recent(ctx context.Context, limit int) ([]domain.Message, error) {
	if limit <= 0 || limit > MaxRecent {
		limit = MaxRecent
	}
	msgs, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, storeErr("recent", err)
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return msgs, nil
}

// Delete removes a message by id; a missing id counts as deleted.
func (s *BoardService) Delete(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	return storeErr("delete", err)
}

func storeErr(op string, err error) error {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStore, err)
}
