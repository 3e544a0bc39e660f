package domain

import "errors"

var (
	ErrValidation       = errors.New("invalid message")
	ErrNotFound         = errors.New("message not found")
	ErrStore            = errors.New("store error")
	ErrStoreUnavailable = errors.New("store unavailable")
)
