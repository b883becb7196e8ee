// Package search provides the two-phase answer search engine.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/answerdesk/internal/config"
	"github.com/hyperjump/answerdesk/internal/models"
	"github.com/hyperjump/answerdesk/internal/storage"
	"github.com/hyperjump/answerdesk/internal/tree"
	"go.uber.org/zap"
)

// Engine runs title search followed by structural content search.
type Engine struct {
	store  storage.AnswerStore
	omit   tree.KeySet
	logger *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for per-record problems.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates a search engine over store. A nil cfg omits only "type" keys.
func NewEngine(store storage.AnswerStore, cfg *config.SearchConfig, opts ...Option) *Engine {
	omit := []string{"type"}
	if cfg != nil && cfg.OmitKeys != nil {
		omit = cfg.OmitKeys
	}
	e := &Engine{
		store:  store,
		omit:   tree.NewKeySet(omit...),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search returns title matches followed by content matches. No answer appears twice.
// Answers whose stored content cannot be searched are dropped and listed in the response's Errors.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	terms, err := ProcessQuery(query)
	if err != nil {
		return nil, err
	}

	titleHits, err := e.store.FindAnswersByTitle(ctx, terms)
	if err != nil {
		return nil, fmt.Errorf("title search failed: %w", err)
	}

	exclude := make([]string, 0, len(titleHits))
	for _, a := range titleHits {
		exclude = append(exclude, a.ID)
	}
	candidates, err := e.store.FindAnswerCandidates(ctx, terms, exclude)
	if err != nil {
		return nil, fmt.Errorf("content search failed: %w", err)
	}

	response := &models.SearchResponse{
		Results: make([]*models.SearchResult, 0, len(titleHits)+len(candidates)),
		Query:   query.Query,
	}
	for _, a := range titleHits {
		if a.ContentErr != nil {
			e.skipRecord(response, a.ID, a.ContentErr)
			continue
		}
		response.Results = append(response.Results, &models.SearchResult{Answer: a, MatchedOn: models.MatchedOnTitle})
	}
	response.TitleMatches = len(response.Results)

	for _, a := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if a.ContentErr != nil {
			e.skipRecord(response, a.ID, a.ContentErr)
			continue
		}
		ok, err := e.matchesAllTerms(a, terms)
		if err != nil {
			e.skipRecord(response, a.ID, err)
			continue
		}
		if !ok {
			continue
		}
		response.Results = append(response.Results, &models.SearchResult{Answer: a, MatchedOn: models.MatchedOnContent})
		response.ContentMatches++
	}

	response.Total = len(response.Results)
	response.QueryTime = time.Since(startTime).Milliseconds()
	e.logger.Debug("Search completed",
		zap.String("query", query.Query),
		zap.Int("title_matches", response.TitleMatches),
		zap.Int("candidates", len(candidates)),
		zap.Int("content_matches", response.ContentMatches))
	return response, nil
}

// skipRecord drops an answer whose content cannot be searched and reports it in the response.
func (e *Engine) skipRecord(response *models.SearchResponse, id string, err error) {
	e.logger.Warn("Skipping answer with unsearchable content",
		zap.String("id", id),
		zap.Error(err))
	response.Errors = append(response.Errors, &models.RecordError{ID: id, Error: err.Error()})
}

// matchesAllTerms reports whether every term is in the title or found in the content tree.
// Different terms may be satisfied by different sources.
func (e *Engine) matchesAllTerms(a *models.Answer, terms []string) (bool, error) {
	title := strings.ToLower(a.Title)
	for _, term := range terms {
		if strings.Contains(title, strings.ToLower(term)) {
			continue
		}
		found, err := tree.Contains(a.Content, term, e.omit)
		if err != nil {
			return false, err
		}
		if !found {
			return false, nil
		}
	}
	return true, nil
}

// IsInvalidQuery reports whether err rejects the query itself rather than a store failure.
func IsInvalidQuery(err error) bool {
	return errors.Is(err, models.ErrInvalidQuery)
}
