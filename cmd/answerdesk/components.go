package main

import (
	"fmt"

	"github.com/hyperjump/answerdesk/internal/config"
	"github.com/hyperjump/answerdesk/internal/importer"
	"github.com/hyperjump/answerdesk/internal/messages"
	"github.com/hyperjump/answerdesk/internal/search"
	"github.com/hyperjump/answerdesk/internal/server"
	"github.com/hyperjump/answerdesk/internal/state"
	"github.com/hyperjump/answerdesk/internal/storage"
	"go.uber.org/zap"
)

// Components holds initialized services.
type Components struct {
	Storage    *storage.SQLiteStorage
	State      state.ReadWriter
	Engine     *search.Engine
	Messages   *messages.Service
	Importer   *importer.Importer
	CountState server.StateCounter
}

// Close releases the state store (when separate) and then storage.
func (c *Components) Close() {
	if c.State != nil && c.State != state.ReadWriter(c.Storage) {
		_ = c.State.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c := &Components{Storage: store, State: store, CountState: store.CountState}

	if cfg.State.Backend == config.StateBackendBadger {
		bs, err := state.OpenBadger(cfg.State.BadgerPath, logger)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to initialize state store: %w", err)
		}
		c.State = bs
		c.CountState = bs.Count
	}
	logger.Debug("components initialized",
		zap.String("database_path", cfg.Storage.DatabasePath),
		zap.String("state_backend", cfg.State.Backend))

	c.Engine = search.NewEngine(store, &cfg.Search, search.WithLogger(logger))
	c.Messages = messages.NewService(store, c.State, messages.WithLogger(logger))
	c.Importer = importer.New(store, c.State, importer.WithLogger(logger))
	return c, nil
}
