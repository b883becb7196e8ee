// Package cli provides output formatting for the answerdesk command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/answerdesk/internal/models"
	"github.com/hyperjump/answerdesk/internal/tree"
	"github.com/hyperjump/answerdesk/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
	// OutputCompact prints one tab-separated line per record.
	OutputCompact OutputFormat = "compact"
)

const previewLen = 200

// ParseOutputFormat maps a flag value to a format. Unknown values are an error.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON, OutputCompact:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or compact)", s)
	}
}

// WriteSearchResults writes search results to w in the given format.
// Unknown formats fall back to text.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		for _, r := range response.Results {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", r.Answer.ID, r.MatchedOn, utils.SingleLine(r.Answer.Title)); err != nil {
				return err
			}
		}
		return nil
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nFound %d results in %dms (%d title, %d content)\n\n",
		response.Total, response.QueryTime, response.TitleMatches, response.ContentMatches)
	for i, result := range response.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "%d. [%s] %s\n", i+1, result.MatchedOn, result.Answer.Title)
		fmt.Fprintf(w, "ID: %s\n", result.Answer.ID)
		fmt.Fprintf(w, "\n%s\n\n", ContentPreview(result.Answer.Content, previewLen))
	}
	for _, e := range response.Errors {
		fmt.Fprintf(w, "! skipped %s: %s\n", e.ID, e.Error)
	}
}

// ContentPreview renders content as single-line JSON cut to maxLen runes.
func ContentPreview(content *tree.Node, maxLen int) string {
	data, err := content.MarshalJSON()
	if err != nil {
		return ""
	}
	return utils.Truncate(string(data), maxLen)
}

// WriteMessages writes resolved messages to w in the given format.
func WriteMessages(w io.Writer, msgs []*models.ResolvedMessage, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, map[string]interface{}{"messages": msgs})
	case OutputCompact:
		for _, m := range msgs {
			text := m.Text
			if m.Error != "" {
				text = "ERROR " + m.Error
			}
			if _, err := fmt.Fprintf(w, "%s\t%s\n", m.ID, utils.SingleLine(text)); err != nil {
				return err
			}
		}
		return nil
	default:
		for _, m := range msgs {
			if m.Error != "" {
				fmt.Fprintf(w, "[%s] error: %s\n", m.ID, m.Error)
				continue
			}
			fmt.Fprintf(w, "[%s] %s\n", m.ID, m.Text)
		}
		return nil
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
