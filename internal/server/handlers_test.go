package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/answerdesk/internal/config"
	"github.com/hyperjump/answerdesk/internal/importer"
	"github.com/hyperjump/answerdesk/internal/messages"
	"github.com/hyperjump/answerdesk/internal/models"
	"github.com/hyperjump/answerdesk/internal/search"
	"github.com/hyperjump/answerdesk/internal/storage"
	"github.com/hyperjump/answerdesk/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockWatchService struct {
	dirs []string
}

func (m *mockWatchService) Directories() []string {
	return append([]string(nil), m.dirs...)
}

func (m *mockWatchService) AddDirectory(path string, _ bool) error {
	for _, d := range m.dirs {
		if d == path {
			return nil
		}
	}
	m.dirs = append(m.dirs, path)
	return nil
}

func (m *mockWatchService) RemoveDirectory(path string) error {
	for i, d := range m.dirs {
		if d == path {
			m.dirs = append(m.dirs[:i], m.dirs[i+1:]...)
			return nil
		}
	}
	return nil
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *storage.SQLiteStorage) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	doc := func(body string) *tree.Node {
		return tree.Map(tree.Field("type", tree.String("doc")), tree.Field("body", tree.String(body)))
	}
	require.NoError(t, store.PutAnswer(ctx, &models.Answer{ID: "1", Title: "Star Trek Intro", Content: doc("warp drive")}))
	require.NoError(t, store.PutAnswer(ctx, &models.Answer{ID: "2", Title: "Physics", Content: doc("Star Trek reference to warp drive")}))
	require.NoError(t, store.PutMessage(ctx, &models.Message{ID: "greeting", Body: "Hello {user_name|friend}!"}))
	require.NoError(t, store.PutMessage(ctx, &models.Message{ID: "broken", Body: "Hi {name}"}))
	require.NoError(t, store.Set(ctx, "user_name", "Jean-Luc"))

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Storage.DatabasePath = ":memory:"

	srv := NewServer(
		search.NewEngine(store, &cfg.Search),
		messages.NewService(store, store),
		importer.New(store, store),
		store, cfg, nil, opts...,
	)
	return srv, store
}

func do(t *testing.T, srv *Server, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	r := httptest.NewRequest(method, target, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, r)
	return w
}

func TestHandleSearch(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, path := range []string{"/api/v1/search", "/search"} {
		t.Run(path, func(t *testing.T) {
			w := do(t, srv, http.MethodPost, path, map[string]string{"query": "star trek"})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var resp models.SearchResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			require.Len(t, resp.Results, 2)
			assert.Equal(t, "1", resp.Results[0].Answer.ID)
			assert.Equal(t, "2", resp.Results[1].Answer.ID)
			assert.Equal(t, models.MatchedOnContent, resp.Results[1].MatchedOn)
		})
	}
}

func TestHandleSearch_NoMatch(t *testing.T) {
	srv, _ := newTestServer(t)
	w := do(t, srv, http.MethodPost, "/api/v1/search", map[string]string{"query": "zzzznomatch"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"results":[]`)
}

func TestHandleSearch_InvalidRequest(t *testing.T) {
	srv, _ := newTestServer(t)
	tests := []struct {
		name string
		body interface{}
		want string
	}{
		{"missing query", map[string]string{}, "invalid request"},
		{"empty query", map[string]string{"query": ""}, "invalid request"},
		{"whitespace query", map[string]string{"query": "   "}, "invalid request"},
		{"malformed json", "{not json", "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, http.MethodPost, "/search", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			var out map[string]string
			require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
			assert.Equal(t, tt.want, out["error"])
		})
	}
}

func TestHandleMessages(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, path := range []string{"/api/v1/messages", "/messages"} {
		w := do(t, srv, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var out struct {
			Messages []*models.ResolvedMessage `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
		require.Len(t, out.Messages, 2)
		assert.Equal(t, "Hello Jean-Luc!", out.Messages[0].Text)
		assert.Equal(t, "broken", out.Messages[1].ID)
		assert.NotEmpty(t, out.Messages[1].Error)
	}
}

func TestHandleMessages_StoreFailure(t *testing.T) {
	srv, store := newTestServer(t)
	require.NoError(t, store.Close())
	w := do(t, srv, http.MethodGet, "/messages", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAnswersCRUD(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/v1/answers",
		`{"id":"new","title":"Shields","content":{"type":"doc","body":"raise shields"}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, srv, http.MethodGet, "/api/v1/answers/new", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got models.Answer
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "Shields", got.Title)
	assert.Equal(t, `{"type":"doc","body":"raise shields"}`, mustJSON(t, got.Content))

	w = do(t, srv, http.MethodGet, "/api/v1/answers?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Answers []*models.Answer `json:"answers"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	assert.Len(t, list.Answers, 2)

	w = do(t, srv, http.MethodDelete, "/api/v1/answers/new", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(t, srv, http.MethodGet, "/api/v1/answers/new", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, srv, http.MethodDelete, "/api/v1/answers/new", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func mustJSON(t *testing.T, n *tree.Node) string {
	t.Helper()
	data, err := n.MarshalJSON()
	require.NoError(t, err)
	return string(data)
}

func TestHandleCreateAnswer_Invalid(t *testing.T) {
	srv, _ := newTestServer(t)
	w := do(t, srv, http.MethodPost, "/api/v1/answers", `{"title":"Flat","content":"not a tree"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, srv, http.MethodPost, "/api/v1/answers", `{"content":{"a":"b"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, srv, http.MethodGet, "/api/v1/answers?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleStatus(t *testing.T) {
	srv, _ := newTestServer(t)
	w := do(t, srv, http.MethodGet, "/api/v1/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	assert.EqualValues(t, 2, out["answers"])
	assert.EqualValues(t, 2, out["messages"])
	assert.EqualValues(t, 1, out["state"])
	cfg, ok := out["config"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "sqlite", cfg["state_backend"])
}

func TestHandleStatus_StateCounter(t *testing.T) {
	srv, _ := newTestServer(t, WithStateCounter(func(context.Context) (int64, error) {
		return 0, errors.New("badger closed")
	}))
	w := do(t, srv, http.MethodGet, "/api/v1/status", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	w := do(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `"ok"`))
}

func TestHandleWatchDirectories(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	mock := &mockWatchService{dirs: []string{"/tmp/corpus"}}
	srv, _ := newTestServer(t, WithWatch(mock, configPath))

	w := do(t, srv, http.MethodGet, "/api/v1/watch/directories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/tmp/corpus")

	w = do(t, srv, http.MethodPost, "/api/v1/watch/directories", map[string]string{"path": dir})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Len(t, mock.Directories(), 2)

	saved, err := config.Load(configPath)
	require.NoError(t, err)
	assert.Contains(t, saved.Watch.Directories, dir)

	w = do(t, srv, http.MethodDelete, "/api/v1/watch/directories?path="+dir, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"/tmp/corpus"}, mock.Directories())
}

func TestHandleWatchDirectories_Errors(t *testing.T) {
	srv, _ := newTestServer(t)
	w := do(t, srv, http.MethodGet, "/api/v1/watch/directories", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)

	srv, _ = newTestServer(t, WithWatch(&mockWatchService{}, ""))
	w = do(t, srv, http.MethodPost, "/api/v1/watch/directories", map[string]string{"path": filepath.Join(t.TempDir(), "missing")})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, srv, http.MethodPost, "/api/v1/watch/directories", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, srv, http.MethodDelete, "/api/v1/watch/directories", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
