package player

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"
)

// HTTPSource fetches catalog snapshots from a remote feed.
type HTTPSource struct {
	baseURL string
	client  *http.Client
	headers map[string]string
}

func NewHTTPSource(baseURL string) *HTTPSource {
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		headers: make(map[string]string),
	}
}

// SetHeader adds a header, such as an API key, to every request.
func (s *HTTPSource) SetHeader(key, value string) {
	s.headers[key] = value
}

func (s *HTTPSource) get(ctx context.Context, endpoint string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range s.headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, "", fmt.Errorf("player feed returned status code: %d, response: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// FetchCatalog downloads the snapshot at endpoint. JSON is chosen by
// content type or a .json suffix; anything else is read as YAML.
func (s *HTTPSource) FetchCatalog(ctx context.Context, endpoint string) (*Catalog, error) {
	body, contentType, err := s.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch player snapshot: %w", err)
	}
	isJSON := strings.Contains(contentType, "json") || strings.EqualFold(path.Ext(endpoint), ".json")
	return parseCatalog(body, isJSON)
}

// Load reads a catalog from an http(s) URL or a local file.
func Load(ctx context.Context, location string) (*Catalog, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTPSource(location).FetchCatalog(ctx, "")
	}
	return LoadCatalog(location)
}
