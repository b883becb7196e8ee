package tree

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedNode is returned when a search starts on a node that is not a map or sequence.
var ErrUnsupportedNode = errors.New("unsupported node type")

// KeySet is a set of map keys whose subtrees a search ignores.
type KeySet map[string]struct{}

// NewKeySet builds a KeySet from keys.
func NewKeySet(keys ...string) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Has reports whether key is in the set. A nil set contains nothing.
func (s KeySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Contains reports whether term occurs, case-insensitively, in any scalar value reachable
// from node. Map entries whose key is in omit are skipped with their whole subtree.
// Bare scalars directly inside a sequence are not matched; only containers inside
// sequences are searched. The search stops at the first hit.
func Contains(node *Node, term string, omit KeySet) (bool, error) {
	if !node.IsContainer() {
		return false, fmt.Errorf("%w: %s", ErrUnsupportedNode, node.kindName())
	}
	return contains(node, strings.ToLower(term), omit), nil
}

func contains(node *Node, term string, omit KeySet) bool {
	switch node.Kind {
	case KindSequence:
		for _, item := range node.Items {
			if item.IsContainer() && contains(item, term, omit) {
				return true
			}
		}
	case KindMap:
		for _, e := range node.Entries {
			if omit.Has(e.Key) {
				continue
			}
			if e.Value.IsContainer() {
				if contains(e.Value, term, omit) {
					return true
				}
				continue
			}
			if strings.Contains(strings.ToLower(e.Value.TextValue()), term) {
				return true
			}
		}
	}
	return false
}
