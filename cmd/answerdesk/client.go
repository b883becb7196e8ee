package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hyperjump/answerdesk/internal/models"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

// apiClient talks to a running answerdesk server.
type apiClient struct {
	base string
}

func newAPIClient(serverURL string) *apiClient {
	return &apiClient{base: strings.TrimRight(serverURL, "/")}
}

// do sends body (when non-nil) as JSON and decodes a response with status want into out.
func (c *apiClient) do(method, path string, body, out interface{}, want int) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErrorMessage(resp.Body))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// apiErrorMessage extracts the "error" field of a JSON error body, or returns the raw text.
func apiErrorMessage(r io.Reader) string {
	b, _ := io.ReadAll(r)
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(b))
}

func (c *apiClient) search(query *models.SearchQuery) (*models.SearchResponse, error) {
	var response models.SearchResponse
	if err := c.do(http.MethodPost, "/api/v1/search", query, &response, http.StatusOK); err != nil {
		return nil, err
	}
	return &response, nil
}

func (c *apiClient) messages() ([]*models.ResolvedMessage, error) {
	var out struct {
		Messages []*models.ResolvedMessage `json:"messages"`
	}
	if err := c.do(http.MethodGet, "/api/v1/messages", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

func (c *apiClient) status() (*statusResponse, error) {
	var out statusResponse
	if err := c.do(http.MethodGet, "/api/v1/status", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) deleteAnswer(id string) error {
	return c.do(http.MethodDelete, "/api/v1/answers/"+url.PathEscape(id), nil, nil, http.StatusOK)
}

func (c *apiClient) watchDirectories() ([]string, error) {
	var out struct {
		Directories []string `json:"directories"`
	}
	if err := c.do(http.MethodGet, "/api/v1/watch/directories", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Directories, nil
}

func (c *apiClient) addWatchDirectory(path string, syncExisting bool) error {
	body := map[string]interface{}{"path": path, "sync": syncExisting}
	return c.do(http.MethodPost, "/api/v1/watch/directories", body, nil, http.StatusCreated)
}

func (c *apiClient) removeWatchDirectory(path string) error {
	return c.do(http.MethodDelete, "/api/v1/watch/directories?path="+url.QueryEscape(path), nil, nil, http.StatusOK)
}

// statusConfigResponse holds configuration info returned by status.
type statusConfigResponse struct {
	DatabasePath     string   `json:"database_path"`
	StateBackend     string   `json:"state_backend"`
	OmitKeys         []string `json:"omit_keys"`
	WatchDirectories []string `json:"watch_directories,omitempty"`
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Answers        int64                 `json:"answers"`
	Messages       int64                 `json:"messages"`
	State          int64                 `json:"state"`
	DiskUsageBytes *int64                `json:"disk_usage_bytes,omitempty"`
	Config         *statusConfigResponse `json:"config,omitempty"`
}
