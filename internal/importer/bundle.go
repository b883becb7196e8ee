package importer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/hyperjump/answerdesk/internal/fileid"
	"github.com/hyperjump/answerdesk/internal/models"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidBundle is returned when a bundle file cannot be decoded.
	ErrInvalidBundle = errors.New("invalid bundle")

	// ErrInvalidAnswer is returned for an answer without a title or with non-container content.
	ErrInvalidAnswer = errors.New("invalid answer")
)

// Bundle is the on-disk corpus format. JSON files decode the same way, as YAML flow documents.
type Bundle struct {
	Answers  []*models.AnswerInput  `yaml:"answers"`
	Messages []*models.MessageInput `yaml:"messages"`
	State    map[string]string      `yaml:"state"`
}

// ParseBundle decodes a YAML or JSON bundle. Unknown top-level keys are rejected.
func ParseBundle(data []byte) (*Bundle, error) {
	var b Bundle
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil {
		if errors.Is(err, io.EOF) {
			return &b, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}
	return &b, nil
}

// ValidateAnswer checks an answer before it is stored.
func ValidateAnswer(in *models.AnswerInput) error {
	if in == nil {
		return fmt.Errorf("%w: empty entry", ErrInvalidAnswer)
	}
	if in.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidAnswer)
	}
	if !in.Content.IsContainer() {
		return fmt.Errorf("%w: content must be a map or a list", ErrInvalidAnswer)
	}
	return nil
}

// rows converts the bundle into storage rows, deriving IDs from source for entries without one.
func (b *Bundle) rows(source string) ([]*models.Answer, []*models.Message, error) {
	answers := make([]*models.Answer, 0, len(b.Answers))
	for i, in := range b.Answers {
		if err := ValidateAnswer(in); err != nil {
			return nil, nil, fmt.Errorf("answer %d: %w", i, err)
		}
		id := in.ID
		if id == "" {
			id = fileid.EntryID(source, "answer", i)
		}
		answers = append(answers, &models.Answer{ID: id, Title: in.Title, Content: in.Content})
	}
	messages := make([]*models.Message, 0, len(b.Messages))
	for i, in := range b.Messages {
		if in == nil {
			return nil, nil, fmt.Errorf("message %d: %w: empty entry", i, ErrInvalidBundle)
		}
		id := in.ID
		if id == "" {
			id = fileid.EntryID(source, "message", i)
		}
		messages = append(messages, &models.Message{ID: id, Body: in.Body})
	}
	return answers, messages, nil
}

// stateKeys returns the state IDs in a stable order.
func (b *Bundle) stateKeys() []string {
	keys := make([]string, 0, len(b.State))
	for k := range b.State {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
