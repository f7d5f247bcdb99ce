package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"homesite/internal/models"
)

// APIClient talks to the homesite HTTP API.
type APIClient struct {
	baseURL string
	token   string
	httpc   *http.Client
}

// NewAPIClient creates a client for the given base URL. token may be empty
// when the server runs with auth disabled.
func NewAPIClient(baseURL, token string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *APIClient) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// Health probes GET /api/health.
func (c *APIClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// ListDocuments fetches a collection listing from the server.
func (c *APIClient) ListDocuments(ctx context.Context, col models.Collection) ([]models.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/"+string(col)+"s", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list %s: unexpected status %d", col, resp.StatusCode)
	}

	var payload struct {
		OK    bool              `json:"ok"`
		Blogs []models.Document `json:"blogs"`
		Notes []models.Document `json:"notes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if col == models.CollectionBlog {
		return payload.Blogs, nil
	}
	return payload.Notes, nil
}

// Upload posts a Markdown file with its tags to the matching upload endpoint.
func (c *APIClient) Upload(ctx context.Context, col models.Collection, filename string, content []byte, tags []string) (models.StoredFile, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return models.StoredFile{}, err
	}
	if _, err := fw.Write(content); err != nil {
		return models.StoredFile{}, err
	}
	if len(tags) > 0 {
		encoded, err := json.Marshal(tags)
		if err != nil {
			return models.StoredFile{}, err
		}
		if err := mw.WriteField("tags", string(encoded)); err != nil {
			return models.StoredFile{}, err
		}
	}
	if err := mw.Close(); err != nil {
		return models.StoredFile{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload-"+string(col), &buf)
	if err != nil {
		return models.StoredFile{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return models.StoredFile{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.StoredFile{}, fmt.Errorf("upload %s: status %d: %s", col, resp.StatusCode, body)
	}

	var payload struct {
		OK       bool     `json:"ok"`
		Filename string   `json:"filename"`
		Path     string   `json:"path"`
		Tags     []string `json:"tags"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.StoredFile{}, err
	}
	return models.StoredFile{Filename: payload.Filename, Path: payload.Path, Tags: payload.Tags}, nil
}
