package search

import "github.com/hyperjump/answerdesk/internal/models"

// ProcessQuery validates the search query and returns its terms.
func ProcessQuery(query *models.SearchQuery) ([]string, error) {
	if query == nil {
		return nil, models.ErrInvalidQuery
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}
	return query.Terms(), nil
}
