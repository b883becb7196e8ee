// Package importer loads corpus bundle files into storage and the state store.
package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hyperjump/answerdesk/internal/fileid"
	"github.com/hyperjump/answerdesk/internal/models"
	"github.com/hyperjump/answerdesk/internal/state"
	"github.com/hyperjump/answerdesk/internal/storage"
	"go.uber.org/zap"
)

// SourceAPI tags answers created through the HTTP API.
const SourceAPI = "api"

// Importer writes bundles and individual answers into storage.
type Importer struct {
	storage storage.Storage
	state   state.Writer
	logger  *zap.Logger // optional; when set, logs debug events
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets a logger for debug output (file imported, file removed, etc.).
func WithLogger(l *zap.Logger) Option {
	return func(im *Importer) { im.logger = l }
}

// Result counts what one bundle file contributed.
type Result struct {
	Source   string `json:"source"`
	Answers  int    `json:"answers"`
	Messages int    `json:"messages"`
	State    int    `json:"state"`
}

// New creates an importer. State entries from bundles are written to values.
func New(store storage.Storage, values state.Writer, opts ...Option) *Importer {
	im := &Importer{storage: store, state: values}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// CreateAnswer validates and stores a single answer, generating an ID when none is given.
// Storing an existing ID replaces that answer.
func (im *Importer) CreateAnswer(ctx context.Context, input *models.AnswerInput) (*models.Answer, error) {
	if err := ValidateAnswer(input); err != nil {
		return nil, err
	}
	if input.ID == "" {
		input.ID = uuid.New().String()
	}
	a := &models.Answer{ID: input.ID, Title: input.Title, Content: input.Content, Source: SourceAPI}
	if err := im.storage.PutAnswer(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to store answer: %w", err)
	}
	return a, nil
}

// ImportBundle replaces everything previously imported under source with the bundle's
// answers and messages, then writes its state entries. The rows are replaced in one
// transaction; state writes happen after it commits and are not atomic with it, so a failing
// state store can leave the rows imported and the state partly written.
func (im *Importer) ImportBundle(ctx context.Context, source string, b *Bundle) (*Result, error) {
	answers, messages, err := b.rows(source)
	if err != nil {
		return nil, err
	}
	keys := b.stateKeys()
	if len(keys) > 0 && im.state == nil {
		return nil, fmt.Errorf("bundle has %d state entries but no state store is configured", len(keys))
	}
	if err := im.storage.ReplaceSource(ctx, source, answers, messages); err != nil {
		return nil, fmt.Errorf("failed to store bundle: %w", err)
	}
	for _, k := range keys {
		if err := im.state.Set(ctx, k, b.State[k]); err != nil {
			return nil, fmt.Errorf("failed to store state %q: %w", k, err)
		}
	}
	return &Result{Source: source, Answers: len(answers), Messages: len(messages), State: len(keys)}, nil
}

// ImportFile reads a bundle file and imports it under a source ID derived from its absolute path,
// so re-importing the file replaces its previous rows. If allowedExts is non-empty, the file's
// extension must be in the list (case-insensitive).
func (im *Importer) ImportFile(ctx context.Context, path string, allowedExts []string) (*Result, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return nil, fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", absPath)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	b, err := ParseBundle(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	res, err := im.ImportBundle(ctx, fileid.SourceID(absPath), b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	if im.logger != nil {
		im.logger.Debug("importer file imported",
			zap.String("path", absPath),
			zap.String("source", res.Source),
			zap.Int("answers", res.Answers),
			zap.Int("messages", res.Messages),
			zap.Int("state", res.State))
	}
	return res, nil
}

// ImportDirectory walks dir recursively and imports each regular file whose extension
// is in allowedExts (if non-empty; otherwise all files). Returns the number of files
// imported and the first error encountered, if any.
func (im *Importer) ImportDirectory(ctx context.Context, dir string, allowedExts []string) (n int, err error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
			return nil
		}
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		if _, importErr := im.ImportFile(ctx, path, allowedExts); importErr != nil {
			return importErr
		}
		n++
		return nil
	})
	return n, err
}

// RemoveFile deletes every answer and message imported from path.
// State entries are shared between files and stay in place.
func (im *Importer) RemoveFile(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	if err := im.storage.DeleteSource(ctx, fileid.SourceID(absPath)); err != nil {
		return fmt.Errorf("failed to remove %s: %w", absPath, err)
	}
	if im.logger != nil {
		im.logger.Debug("importer file removed", zap.String("path", absPath))
	}
	return nil
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
