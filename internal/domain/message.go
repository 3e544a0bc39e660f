package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Message is a persisted board post. Once stored it only ever gets deleted.
type Message struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Title     string    `json:"title"`
	Body      string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// MessageInput is what a client submits to create a Message.
// Title is optional: only author and message are checked before hitting the store.
type MessageInput struct {
	Author string `json:"author" validate:"required"`
	Title  string `json:"title"`
	Body   string `json:"message" validate:"required"`
}

// Normalize returns a copy with surrounding whitespace removed from every field.
func (in MessageInput) Normalize() MessageInput {
	return MessageInput{
		Author: strings.TrimSpace(in.Author),
		Title:  strings.TrimSpace(in.Title),
		Body:   strings.TrimSpace(in.Body),
	}
}

// Validate reports ErrValidation naming the offending fields.
// Whitespace-only values count as empty.
func (in MessageInput) Validate() error {
	err := validate.Struct(in.Normalize())
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fieldName(fe.Field()))
	}

	return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(fields, ", "))
}

// wire names, so log lines match what the client sent
func fieldName(goName string) string {
	switch goName {
	case "Body":
		return "message"
	default:
		return strings.ToLower(goName)
	}
}
