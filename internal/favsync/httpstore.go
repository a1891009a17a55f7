package favsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/luxor-photos/luxor/internal/favorites"
	"go.uber.org/zap"
)

// userIDHeader scopes each request to the ambient anonymous owner.
const userIDHeader = "X-User-ID"

const (
	genericListFailure   = "failed to load favorites"
	genericCreateFailure = "failed to add favorite"
	genericDeleteFailure = "failed to remove favorite"
)

var (
	errMissingBaseURL  = errors.New("favsync: base url is required")
	errMissingIdentity = errors.New("favsync: identity provider is required")
)

// IdentityProvider supplies the ambient owner identifier for every request.
type IdentityProvider interface {
	GetOrCreateIdentifier() (string, error)
}

// HTTPStoreConfig bundles the dependencies of an HTTPStore.
type HTTPStoreConfig struct {
	BaseURL    string
	Identity   IdentityProvider
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// HTTPStore implements RemoteStore over the favorites REST endpoints. All
// transport and decoding failures are folded into the result shape; nothing
// escapes to the caller as an error.
type HTTPStore struct {
	baseURL    string
	identity   IdentityProvider
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPStore constructs a store with validated configuration.
func NewHTTPStore(cfg HTTPStoreConfig) (*HTTPStore, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errMissingBaseURL
	}
	if cfg.Identity == nil {
		return nil, errMissingIdentity
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HTTPStore{
		baseURL:    baseURL,
		identity:   cfg.Identity,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// envelope mirrors the wire shape every endpoint responds with.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// List fetches the owner's favorites in the order the store returns them.
func (s *HTTPStore) List(ctx context.Context) ListResult {
	reply, status := s.call(ctx, http.MethodGet, "/favorites", nil, genericListFailure)
	if !status.Success {
		return ListResult{Status: status}
	}

	var records []favorites.FavoriteRecord
	if err := json.Unmarshal(reply.Data, &records); err != nil {
		s.logger.Warn("favorites list payload is not a sequence", zap.Error(err))
		return ListResult{Status: Status{Message: genericListFailure, Err: err}}
	}
	if records == nil {
		records = []favorites.FavoriteRecord{}
	}

	return ListResult{Status: Status{Success: true}, Favorites: records}
}

// Create stores a favorite for the photo and returns the echoed record when
// the store supplies one.
func (s *HTTPStore) Create(ctx context.Context, photo favorites.PhotoRecord) CreateResult {
	body := map[string]any{
		"photo_id":   photo.ID,
		"photo_data": photo,
	}
	reply, status := s.call(ctx, http.MethodPost, "/favorites", body, genericCreateFailure)
	if !status.Success {
		return CreateResult{Status: status}
	}

	if len(reply.Data) == 0 || string(reply.Data) == "null" {
		return CreateResult{Status: Status{Success: true}}
	}
	var record favorites.FavoriteRecord
	if err := json.Unmarshal(reply.Data, &record); err != nil {
		s.logger.Warn("created favorite payload is not a record, ignoring echo", zap.Error(err))
		return CreateResult{Status: Status{Success: true}}
	}

	return CreateResult{Status: Status{Success: true}, Favorite: &record}
}

// Delete removes the favorite for the photo id.
func (s *HTTPStore) Delete(ctx context.Context, photoID string) DeleteResult {
	path := "/favorites/" + url.PathEscape(photoID)
	_, status := s.call(ctx, http.MethodDelete, path, nil, genericDeleteFailure)
	return DeleteResult{Status: status}
}

// call issues one request and folds every failure mode into a Status. The
// returned envelope is only meaningful when Status.Success is true.
func (s *HTTPStore) call(ctx context.Context, method, path string, body any, genericMessage string) (envelope, Status) {
	ownerID, err := s.identity.GetOrCreateIdentifier()
	if err != nil {
		s.logger.Warn("identity resolution failed", zap.Error(err))
		return envelope{}, Status{Message: genericMessage, Err: err}
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			s.logger.Warn("request encoding failed", zap.String("path", path), zap.Error(err))
			return envelope{}, Status{Message: genericMessage, Err: err}
		}
		reader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return envelope{}, Status{Message: genericMessage, Err: err}
	}
	request.Header.Set(userIDHeader, ownerID)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := s.httpClient.Do(request)
	if err != nil {
		s.logger.Warn("favorites store request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return envelope{}, Status{Message: genericMessage, Err: err}
	}
	defer response.Body.Close()

	var reply envelope
	if err := json.NewDecoder(response.Body).Decode(&reply); err != nil {
		s.logger.Warn("favorites store response undecodable",
			zap.String("path", path),
			zap.Int("status", response.StatusCode),
			zap.Error(err))
		return envelope{}, Status{Message: genericMessage, Err: err}
	}

	if !reply.Success {
		message := strings.TrimSpace(reply.Message)
		if message == "" {
			message = genericMessage
		}
		s.logger.Debug("favorites store reported failure",
			zap.String("path", path),
			zap.Int("status", response.StatusCode),
			zap.String("code", reply.Error))
		return envelope{}, Status{Message: message}
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return envelope{}, Status{
			Message: genericMessage,
			Err:     fmt.Errorf("favsync: unexpected status %d with success envelope", response.StatusCode),
		}
	}

	return reply, Status{Success: true}
}
