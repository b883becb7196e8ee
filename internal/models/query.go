package models

import (
	"errors"
	"strings"
)

// ErrInvalidQuery is returned for empty or whitespace-only search queries.
var ErrInvalidQuery = errors.New("invalid query")

// SearchQuery represents a search request.
type SearchQuery struct {
	Query string `json:"query"`
}

// Validate rejects queries that split into zero terms.
func (q *SearchQuery) Validate() error {
	if len(q.Terms()) == 0 {
		return ErrInvalidQuery
	}
	return nil
}

// Terms splits the query on whitespace, keeping term order.
func (q *SearchQuery) Terms() []string {
	return strings.Fields(q.Query)
}
