// Package template parses message templates and fills their {variable|fallback} placeholders.
package template

import "strings"

// Placeholder is a parsed {variable|fallback} expression.
type Placeholder struct {
	VariableID string
	Fallback   string
}

// Segment is either literal text or a placeholder.
type Segment struct {
	Literal     string
	Placeholder *Placeholder
}

// Parse splits tmpl into literal and placeholder segments, left to right.
// Text outside braces is kept verbatim. A '{' opened inside a placeholder, a '}' outside one,
// and a '{' never closed are ErrUnboundedDelimiter; a body without exactly one '|' is
// ErrMalformedPlaceholder.
func Parse(tmpl string) ([]Segment, error) {
	var segs []Segment
	inside := false
	start, open := 0, 0
	for i := 0; i < len(tmpl); i++ {
		switch tmpl[i] {
		case '{':
			if inside {
				return nil, &SyntaxError{Err: ErrUnboundedDelimiter, Offset: open, Body: tmpl[start:i]}
			}
			if i > start {
				segs = append(segs, Segment{Literal: tmpl[start:i]})
			}
			inside, open, start = true, i, i+1
		case '}':
			if !inside {
				return nil, &SyntaxError{Err: ErrUnboundedDelimiter, Offset: i}
			}
			ph, err := parsePlaceholder(tmpl[start:i], open)
			if err != nil {
				return nil, err
			}
			segs = append(segs, Segment{Placeholder: ph})
			inside, start = false, i+1
		}
	}
	if inside {
		return nil, &SyntaxError{Err: ErrUnboundedDelimiter, Offset: open, Body: tmpl[start:]}
	}
	if start < len(tmpl) {
		segs = append(segs, Segment{Literal: tmpl[start:]})
	}
	return segs, nil
}

func parsePlaceholder(body string, offset int) (*Placeholder, error) {
	if strings.Count(body, "|") != 1 {
		return nil, &SyntaxError{Err: ErrMalformedPlaceholder, Offset: offset, Body: body}
	}
	id, fallback, _ := strings.Cut(body, "|")
	return &Placeholder{VariableID: id, Fallback: fallback}, nil
}
