// Package state defines the key-value store that supplies placeholder values to message templates.
package state

import "context"

// Store looks up state values by id. A missing id is reported with found == false,
// never as an error; errors mean the store itself failed.
type Store interface {
	Lookup(ctx context.Context, id string) (value string, found bool, err error)
}

// Writer stores state values. Used by the bundle importer.
type Writer interface {
	Set(ctx context.Context, id, value string) error
}

// ReadWriter is a state store that can also be written.
type ReadWriter interface {
	Store
	Writer
	Close() error
}

// Map is a fixed in-memory Store.
type Map map[string]string

// Lookup returns the value for id.
func (m Map) Lookup(_ context.Context, id string) (string, bool, error) {
	v, ok := m[id]
	return v, ok, nil
}
