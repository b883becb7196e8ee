// Package messages resolves stored message templates against the state store.
package messages

import (
	"context"
	"fmt"

	"github.com/hyperjump/answerdesk/internal/models"
	"github.com/hyperjump/answerdesk/internal/state"
	"github.com/hyperjump/answerdesk/internal/storage"
	"github.com/hyperjump/answerdesk/internal/template"
	"go.uber.org/zap"
)

// Service enumerates messages and fills their placeholders.
type Service struct {
	store    storage.MessageStore
	resolver *template.Resolver
	logger   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used to report malformed templates.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a message service over store, resolving variables from values.
func NewService(store storage.MessageStore, values state.Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		resolver: template.NewResolver(values),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolveAll returns every stored message, resolved, in enumeration order.
// A malformed template fails only its own message, which carries the error text.
// Store failures abort the whole call.
func (s *Service) ResolveAll(ctx context.Context) ([]*models.ResolvedMessage, error) {
	msgs, err := s.store.ListMessages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	resolved := make([]*models.ResolvedMessage, 0, len(msgs))
	for _, msg := range msgs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := s.resolver.Resolve(ctx, msg.Body)
		if err != nil {
			if !template.IsSyntaxError(err) {
				return nil, fmt.Errorf("resolve message %s: %w", msg.ID, err)
			}
			s.logger.Warn("Malformed message template",
				zap.String("id", msg.ID),
				zap.Error(err))
			resolved = append(resolved, &models.ResolvedMessage{ID: msg.ID, Error: err.Error()})
			continue
		}
		resolved = append(resolved, &models.ResolvedMessage{ID: msg.ID, Text: text})
	}
	return resolved, nil
}
