package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/hyperjump/answerdesk/internal/models"
	"github.com/hyperjump/answerdesk/internal/predicate"
	"github.com/hyperjump/answerdesk/internal/tree"
)

const (
	// driverName is go-sqlite3 with the predicate fold function registered on every connection.
	driverName = "sqlite3_answerdesk"

	answerColumns = `id, title, content, source, created_at, updated_at`

	// titleContentExpr is the coarse-filter haystack: the title plus the unescaped keys and
	// scalar values of the content tree.
	titleContentExpr = `(title || ' ' || search_text)`
)

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc(predicate.FoldFunc, strings.ToLower, true)
		},
	})
}

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open(driverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// each pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS answers (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		search_text TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_answers_source ON answers(source);

	CREATE TABLE IF NOT EXISTS messages (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		body TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_messages_source ON messages(source);

	CREATE TABLE IF NOT EXISTS state (
		id TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	return addSearchText(db)
}

// addSearchText upgrades databases created before answers had a search_text column
// and fills it from the stored content.
func addSearchText(db *sql.DB) error {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('answers') WHERE name = 'search_text'`).Scan(&n)
	if err != nil || n > 0 {
		return err
	}
	if _, err := db.Exec(`ALTER TABLE answers ADD COLUMN search_text TEXT NOT NULL DEFAULT ''`); err != nil {
		return err
	}

	rows, err := db.Query(`SELECT id, content FROM answers`)
	if err != nil {
		return err
	}
	texts := make(map[string]string)
	for rows.Next() {
		var id, content string
		if err := rows.Scan(&id, &content); err != nil {
			rows.Close()
			return err
		}
		if node, err := tree.ParseJSON([]byte(content)); err == nil {
			texts[id] = tree.SearchText(node)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	for id, text := range texts {
		if _, err := db.Exec(`UPDATE answers SET search_text = ? WHERE id = ?`, text, id); err != nil {
			return err
		}
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func putAnswer(ctx context.Context, db execer, a *models.Answer) error {
	content, err := a.Content.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal content: %w", err)
	}
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	_, err = db.ExecContext(ctx,
		`INSERT INTO answers (id, title, content, search_text, source, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title, content = excluded.content, search_text = excluded.search_text,
		   source = excluded.source, updated_at = excluded.updated_at`,
		a.ID, a.Title, string(content), tree.SearchText(a.Content), a.Source, a.CreatedAt, a.UpdatedAt,
	)
	return err
}

func putMessage(ctx context.Context, db execer, m *models.Message) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO messages (id, body, source) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET body = excluded.body, source = excluded.source`,
		m.ID, m.Body, m.Source,
	)
	return err
}

// scanAnswer reads one row. Undecodable content leaves Content nil and sets ContentErr,
// so one corrupt row does not fail a whole query.
func scanAnswer(row rowScanner) (*models.Answer, error) {
	var a models.Answer
	var content string
	if err := row.Scan(&a.ID, &a.Title, &content, &a.Source, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	node, err := tree.ParseJSON([]byte(content))
	if err != nil {
		a.ContentErr = fmt.Errorf("%w: %v", ErrCorruptContent, err)
		return &a, nil
	}
	a.Content = node
	return &a, nil
}

func (s *SQLiteStorage) queryAnswers(ctx context.Context, query string, args ...any) ([]*models.Answer, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []*models.Answer
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// PutAnswer inserts an answer or replaces the one with the same ID.
func (s *SQLiteStorage) PutAnswer(ctx context.Context, answer *models.Answer) error {
	return putAnswer(ctx, s.db, answer)
}

// GetAnswer returns an answer by ID.
func (s *SQLiteStorage) GetAnswer(ctx context.Context, id string) (*models.Answer, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+answerColumns+` FROM answers WHERE id = ?`, id)
	a, err := scanAnswer(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("answer %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if a.ContentErr != nil {
		return nil, fmt.Errorf("answer %s: %w", id, a.ContentErr)
	}
	return a, nil
}

// DeleteAnswer removes an answer by ID.
func (s *SQLiteStorage) DeleteAnswer(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM answers WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("answer %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListAnswers returns answers in insertion order with offset and limit.
func (s *SQLiteStorage) ListAnswers(ctx context.Context, offset, limit int) ([]*models.Answer, error) {
	return s.queryAnswers(ctx,
		`SELECT `+answerColumns+` FROM answers ORDER BY rowid LIMIT ? OFFSET ?`,
		limit, offset,
	)
}

// FindAnswersByTitle returns answers whose title contains every term.
func (s *SQLiteStorage) FindAnswersByTitle(ctx context.Context, terms []string) ([]*models.Answer, error) {
	where, err := predicate.Contains("title", terms)
	if err != nil {
		return nil, err
	}
	return s.queryAnswers(ctx,
		`SELECT `+answerColumns+` FROM answers WHERE `+where.Clause+` ORDER BY rowid`,
		where.Args...,
	)
}

// FindAnswerCandidates returns answers not in exclude whose title and flattened content,
// joined, contain every term.
func (s *SQLiteStorage) FindAnswerCandidates(ctx context.Context, terms []string, exclude []string) ([]*models.Answer, error) {
	like, err := predicate.Contains(titleContentExpr, terms)
	if err != nil {
		return nil, err
	}
	where := predicate.And(like, predicate.NotIn("id", exclude))
	return s.queryAnswers(ctx,
		`SELECT `+answerColumns+` FROM answers WHERE `+where.Clause+` ORDER BY rowid`,
		where.Args...,
	)
}

// PutMessage inserts a message or replaces the body of the one with the same ID.
// A replaced message keeps its position in ListMessages.
func (s *SQLiteStorage) PutMessage(ctx context.Context, msg *models.Message) error {
	return putMessage(ctx, s.db, msg)
}

// ListMessages returns all messages in insertion order.
func (s *SQLiteStorage) ListMessages(ctx context.Context) ([]*models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, body, source FROM messages ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.Body, &m.Source); err != nil {
			return nil, err
		}
		msgs = append(msgs, &m)
	}
	return msgs, rows.Err()
}

// ReplaceSource atomically swaps every answer and message tagged with source for the given ones.
func (s *SQLiteStorage) ReplaceSource(ctx context.Context, source string, answers []*models.Answer, messages []*models.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteSource(ctx, tx, source); err != nil {
		return err
	}
	for _, a := range answers {
		a.Source = source
		if err := putAnswer(ctx, tx, a); err != nil {
			return fmt.Errorf("answer %s: %w", a.ID, err)
		}
	}
	for _, m := range messages {
		m.Source = source
		if err := putMessage(ctx, tx, m); err != nil {
			return fmt.Errorf("message %s: %w", m.ID, err)
		}
	}
	return tx.Commit()
}

// DeleteSource removes every answer and message tagged with source.
func (s *SQLiteStorage) DeleteSource(ctx context.Context, source string) error {
	return deleteSource(ctx, s.db, source)
}

func deleteSource(ctx context.Context, db execer, source string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM answers WHERE source = ?`, source); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, `DELETE FROM messages WHERE source = ?`, source)
	return err
}

// Lookup returns the state value for id; a missing id is not an error.
func (s *SQLiteStorage) Lookup(ctx context.Context, id string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM state WHERE id = ?`, id).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("state lookup %q: %w", id, err)
	}
	return value, true, nil
}

// Set stores a state value.
func (s *SQLiteStorage) Set(ctx context.Context, id, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO state (id, value) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET value = excluded.value`,
		id, value,
	)
	return err
}

// CountAnswers returns the total number of answers.
func (s *SQLiteStorage) CountAnswers(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM answers`)
}

// CountMessages returns the total number of messages.
func (s *SQLiteStorage) CountMessages(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM messages`)
}

// CountState returns the number of state entries held in SQLite.
func (s *SQLiteStorage) CountState(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM state`)
}

func (s *SQLiteStorage) count(ctx context.Context, query string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
