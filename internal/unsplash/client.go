// Package unsplash provides a thin client for the Unsplash photo search API.
package unsplash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/luxor-photos/luxor/internal/favorites"
	"go.uber.org/zap"
)

const (
	// MaxPerPage is the largest page size the upstream API accepts.
	MaxPerPage = 30

	searchPhotosPath = "/search/photos"
	apiVersionHeader = "v1"
)

var (
	errMissingAccessKey = errors.New("unsplash: access key is required")
	errMissingBaseURL   = errors.New("unsplash: base url is required")
	errEmptyQuery       = errors.New("unsplash: search query must not be empty")
)

// ClientConfig bundles configuration required to instantiate a Client.
type ClientConfig struct {
	AccessKey  string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// SearchResult carries one page of search results plus pagination totals.
type SearchResult struct {
	Results    []favorites.PhotoRecord `json:"results"`
	Total      int                     `json:"total"`
	TotalPages int                     `json:"total_pages"`
}

// Client issues authenticated search requests against the Unsplash API.
type Client struct {
	accessKey  string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient constructs a client with validated configuration.
func NewClient(cfg ClientConfig) (*Client, error) {
	accessKey := strings.TrimSpace(cfg.AccessKey)
	if accessKey == "" {
		return nil, errMissingAccessKey
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errMissingBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		accessKey:  accessKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Search fetches one page of photo results for the query. The page number is
// 1-indexed and floor-clamped to 1; the page size is clamped into [1, 30].
func (c *Client) Search(ctx context.Context, query string, page, perPage int) (SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return SearchResult{}, errEmptyQuery
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	values := url.Values{}
	values.Set("query", query)
	values.Set("page", strconv.Itoa(page))
	values.Set("per_page", strconv.Itoa(perPage))

	requestURL := c.baseURL + searchPhotosPath + "?" + values.Encode()
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return SearchResult{}, err
	}
	request.Header.Set("Authorization", "Client-ID "+c.accessKey)
	request.Header.Set("Accept-Version", apiVersionHeader)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return SearchResult{}, err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		c.logger.Warn("unsplash search returned non-ok status",
			zap.Int("status", response.StatusCode),
			zap.String("query", query))
		return SearchResult{}, fmt.Errorf("unsplash: search request returned status %d", response.StatusCode)
	}

	var result SearchResult
	if err := json.NewDecoder(response.Body).Decode(&result); err != nil {
		return SearchResult{}, fmt.Errorf("unsplash: decoding search response: %w", err)
	}
	if result.Results == nil {
		result.Results = []favorites.PhotoRecord{}
	}

	return result, nil
}
