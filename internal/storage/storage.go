// Package storage defines the persistence interfaces for answers, messages and state entries.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/answerdesk/internal/models"
)

var (
	// ErrNotFound is returned when a requested answer does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCorruptContent marks a stored answer whose content cannot be decoded.
	ErrCorruptContent = errors.New("corrupt answer content")
)

// AnswerStore is the read side used by the search engine.
type AnswerStore interface {
	// FindAnswersByTitle returns answers whose title contains every term (case-insensitive).
	// Rows whose content cannot be decoded are returned with ContentErr set.
	FindAnswersByTitle(ctx context.Context, terms []string) ([]*models.Answer, error)
	// FindAnswerCandidates returns answers, other than exclude, where title and flattened
	// content joined together contain every term. Candidates still need the precise content check.
	FindAnswerCandidates(ctx context.Context, terms []string, exclude []string) ([]*models.Answer, error)
}

// MessageStore enumerates stored message templates in their natural order.
type MessageStore interface {
	ListMessages(ctx context.Context) ([]*models.Message, error)
}

// Storage is the full persistence surface.
type Storage interface {
	AnswerStore
	MessageStore

	// Answer operations
	PutAnswer(ctx context.Context, answer *models.Answer) error
	GetAnswer(ctx context.Context, id string) (*models.Answer, error)
	DeleteAnswer(ctx context.Context, id string) error
	ListAnswers(ctx context.Context, offset, limit int) ([]*models.Answer, error)

	// Message operations
	PutMessage(ctx context.Context, msg *models.Message) error

	// Bundle operations: rows are tagged with the source they were imported from.
	ReplaceSource(ctx context.Context, source string, answers []*models.Answer, messages []*models.Message) error
	DeleteSource(ctx context.Context, source string) error

	// State entries
	Lookup(ctx context.Context, id string) (string, bool, error)
	Set(ctx context.Context, id, value string) error

	// Stats
	CountAnswers(ctx context.Context) (int64, error)
	CountMessages(ctx context.Context) (int64, error)
	CountState(ctx context.Context) (int64, error)

	Close() error
}
