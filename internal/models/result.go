package models

// Match sources for a search result.
const (
	MatchedOnTitle   = "title"
	MatchedOnContent = "content"
)

// SearchResult is a single matching answer.
type SearchResult struct {
	Answer    *Answer `json:"answer"`
	MatchedOn string  `json:"matched_on"`
}

// RecordError reports an answer that could not be checked because its stored content is malformed.
type RecordError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// SearchResponse is the response for a search request.
// Results lists title matches first, then content matches; no answer appears twice.
type SearchResponse struct {
	Results        []*SearchResult `json:"results"`
	Total          int             `json:"total"`
	TitleMatches   int             `json:"title_matches"`
	ContentMatches int             `json:"content_matches"`
	QueryTime      int64           `json:"query_time_ms"`
	Query          string          `json:"query"`
	Errors         []*RecordError  `json:"errors,omitempty"`
}
