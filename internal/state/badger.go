package state

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.uber.org/zap"
)

const keyPrefix = "state:"

// BadgerStore keeps state entries in a BadgerDB directory.
type BadgerStore struct {
	db *badger.DB
}

// zapBadgerLogger routes badger's internal logging through zap.
type zapBadgerLogger struct {
	sugar *zap.SugaredLogger
}

var _ badger.Logger = (*zapBadgerLogger)(nil)

func (l *zapBadgerLogger) Errorf(msg string, args ...any)   { l.sugar.Errorf(msg, args...) }
func (l *zapBadgerLogger) Warningf(msg string, args ...any) { l.sugar.Warnf(msg, args...) }
func (l *zapBadgerLogger) Infof(msg string, args ...any)    { l.sugar.Debugf(msg, args...) }
func (l *zapBadgerLogger) Debugf(msg string, args ...any)   { l.sugar.Debugf(msg, args...) }

// OpenBadger opens or creates a BadgerDB at dir. An empty dir opens an in-memory database.
// logger may be nil.
func OpenBadger(dir string, logger *zap.Logger) (*BadgerStore, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
		opts = badger.DefaultOptions(dir)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.Logger = &zapBadgerLogger{sugar: logger.Named("badger").Sugar()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Lookup returns the value for id.
func (s *BadgerStore) Lookup(ctx context.Context, id string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	var value string
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			found = true
			return nil
		})
	})
	if err != nil {
		return "", false, fmt.Errorf("state lookup %q: %w", id, err)
	}
	return value, found, nil
}

// Set stores value under id.
func (s *BadgerStore) Set(ctx context.Context, id, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+id), []byte(value))
	})
}

// Count returns the number of state entries.
func (s *BadgerStore) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var n int64
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
