// Package identity provisions the stable anonymous identifier that scopes all
// favorite operations to one owner. The identifier is a version-4 UUID created
// once per profile and persisted in a durable store.
package identity

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errMissingStore = errors.New("identity: store is required")

// Store persists the identifier across sessions. Read returns an empty string
// when no identifier has been stored yet.
type Store interface {
	Read() (string, error)
	Write(value string) error
}

// ProviderConfig bundles the dependencies of a Provider.
type ProviderConfig struct {
	Store    Store
	Logger   *zap.Logger
	Generate func() (uuid.UUID, error)
}

// Provider hands out the per-profile identifier, creating it on first use.
type Provider struct {
	store    Store
	logger   *zap.Logger
	generate func() (uuid.UUID, error)

	mu     sync.Mutex
	cached string
}

// NewProvider constructs a provider with validated configuration.
func NewProvider(cfg ProviderConfig) (*Provider, error) {
	if cfg.Store == nil {
		return nil, errMissingStore
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	generate := cfg.Generate
	if generate == nil {
		generate = uuid.NewRandom
	}

	return &Provider{
		store:    cfg.Store,
		logger:   logger,
		generate: generate,
	}, nil
}

// GetOrCreateIdentifier returns the stored identifier, generating and
// persisting a fresh version-4 UUID on first use. A store write failure is
// logged and the fresh identifier is still returned; it will not survive the
// session, but the session keeps working.
func (p *Provider) GetOrCreateIdentifier() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != "" {
		return p.cached, nil
	}

	stored, err := p.store.Read()
	if err != nil {
		p.logger.Warn("identity store read failed", zap.Error(err))
	} else if value, ok := normalizeIdentifier(stored); ok {
		p.cached = value
		return value, nil
	} else if strings.TrimSpace(stored) != "" {
		p.logger.Warn("discarding malformed stored identifier")
	}

	generated, err := p.generate()
	if err != nil {
		return "", fmt.Errorf("identity: generating identifier: %w", err)
	}
	value := generated.String()

	if err := p.store.Write(value); err != nil {
		p.logger.Warn("identity store write failed, identifier will not survive this session", zap.Error(err))
	}

	p.cached = value
	return value, nil
}

// normalizeIdentifier accepts only version-4 RFC 4122 UUIDs.
func normalizeIdentifier(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	parsed, err := uuid.Parse(trimmed)
	if err != nil {
		return "", false
	}
	if parsed.Version() != 4 || parsed.Variant() != uuid.RFC4122 {
		return "", false
	}
	return strings.ToLower(trimmed), true
}

// FileStore persists the identifier in a single file.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultStorePath places the identifier file under the user config directory.
func DefaultStorePath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "luxor", "user_id"), nil
}

// Read returns the stored identifier, or an empty string when absent.
func (s *FileStore) Read() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Write persists the identifier, creating parent directories as needed.
func (s *FileStore) Write(value string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(value+"\n"), 0o600)
}
