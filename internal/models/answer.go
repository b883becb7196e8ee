// Package models defines core data structures for answers, messages, queries, and search results.
package models

import (
	"time"

	"github.com/hyperjump/answerdesk/internal/tree"
)

// Answer is a retrievable knowledge-base document with a title and structured content.
type Answer struct {
	ID        string     `json:"id" db:"id"`
	Title     string     `json:"title" db:"title"`
	Content   *tree.Node `json:"content" db:"content"`
	Source    string     `json:"source,omitempty" db:"source"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`

	// ContentErr is set instead of Content when the stored content could not be decoded.
	ContentErr error `json:"-" db:"-"`
}

// AnswerInput is the input for creating or replacing an answer, from the API or a bundle file.
type AnswerInput struct {
	ID      string     `json:"id,omitempty" yaml:"id,omitempty"`
	Title   string     `json:"title" yaml:"title"`
	Content *tree.Node `json:"content" yaml:"content"`
}

// Message is a stored template whose placeholders are filled from state entries.
type Message struct {
	ID     string `json:"id" db:"id"`
	Body   string `json:"body" db:"body"`
	Source string `json:"source,omitempty" db:"source"`
}

// MessageInput is a message declared in a bundle file.
type MessageInput struct {
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
	Body string `json:"body" yaml:"body"`
}

// ResolvedMessage is a message after placeholder resolution.
// Error is set, and Text left empty, when this message's template is malformed.
type ResolvedMessage struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}
