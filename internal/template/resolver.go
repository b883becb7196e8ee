package template

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/answerdesk/internal/state"
)

// Resolver fills placeholders from a state store, using the fallback text for absent variables.
type Resolver struct {
	store state.Store
}

// NewResolver creates a resolver reading from store.
func NewResolver(store state.Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns tmpl with every placeholder replaced by its state value or fallback.
// Store failures are returned; a missing variable is not a failure.
func (r *Resolver) Resolve(ctx context.Context, tmpl string) (string, error) {
	if !strings.ContainsAny(tmpl, "{}") {
		return tmpl, nil
	}
	segs, err := Parse(tmpl)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(len(tmpl))
	for _, seg := range segs {
		if seg.Placeholder == nil {
			b.WriteString(seg.Literal)
			continue
		}
		value, found, err := r.store.Lookup(ctx, seg.Placeholder.VariableID)
		if err != nil {
			return "", fmt.Errorf("lookup %q: %w", seg.Placeholder.VariableID, err)
		}
		if !found {
			value = seg.Placeholder.Fallback
		}
		b.WriteString(value)
	}
	return b.String(), nil
}
