package favsync

import (
	"context"
	"errors"
	"sync"

	"github.com/luxor-photos/luxor/internal/favorites"
	"go.uber.org/zap"
)

var errMissingStore = errors.New("favsync: remote store is required")

// StateConfig bundles the dependencies of a State.
type StateConfig struct {
	Store  RemoteStore
	Logger *zap.Logger
}

// State holds the session's view of the owner's favorites: an ordered record
// list for display and a membership set for O(1) checks. The two always agree
// on which photo ids are present.
//
// ToggleFavorite applies its membership mutation before the remote call is
// issued, so the UI reflects the change immediately; a failed call rolls the
// mutation back. A toggle for a photo whose previous toggle has not settled
// yet is ignored, which keeps two in-flight calls for the same photo from
// racing each other.
type State struct {
	store  RemoteStore
	logger *zap.Logger

	mu         sync.Mutex // held across field access only, never across a remote call
	records    []favorites.FavoriteRecord
	members    map[string]struct{}
	inFlight   map[string]struct{}
	loading    bool
	errMessage string
}

// NewState constructs an empty state bound to the remote store.
func NewState(cfg StateConfig) (*State, error) {
	if cfg.Store == nil {
		return nil, errMissingStore
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &State{
		store:    cfg.Store,
		logger:   logger,
		records:  []favorites.FavoriteRecord{},
		members:  make(map[string]struct{}),
		inFlight: make(map[string]struct{}),
	}, nil
}

// Favorites returns a copy of the ordered record list, newest first as
// delivered by the store.
func (s *State) Favorites() []favorites.FavoriteRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]favorites.FavoriteRecord, len(s.records))
	copy(out, s.records)
	return out
}

// IsFavorite reports membership for the photo id.
func (s *State) IsFavorite(photoID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.members[photoID]
	return ok
}

// IsLoading reports whether a reload is in progress.
func (s *State) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// ErrorMessage returns the current user-visible error, or an empty string.
func (s *State) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMessage
}

// ClearError dismisses the current error. No other side effects.
func (s *State) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMessage = ""
}

// Reload replaces the state with the store's view of the owner's favorites.
// On any failure the list and set are emptied and a user-visible message is
// set; the loading flag is cleared on every exit path.
func (s *State) Reload(ctx context.Context) {
	s.mu.Lock()
	s.loading = true
	s.errMessage = ""
	s.mu.Unlock()

	result := s.store.List(ctx)

	s.mu.Lock()
	defer func() {
		s.loading = false
		s.mu.Unlock()
	}()

	if !result.Success {
		if result.Err != nil {
			s.logger.Warn("favorites reload failed", zap.Error(result.Err))
		}
		s.records = []favorites.FavoriteRecord{}
		s.members = make(map[string]struct{})
		s.errMessage = messageOrDefault(result.Status, genericListFailure)
		return
	}

	records := make([]favorites.FavoriteRecord, len(result.Favorites))
	copy(records, result.Favorites)
	members := make(map[string]struct{}, len(records))
	for _, record := range records {
		members[record.PhotoID] = struct{}{}
	}
	s.records = records
	s.members = members
}

// ToggleFavorite adds the photo to the favorites when absent and removes it
// when present. The membership mutation is observable before the remote call
// settles and is reverted when the call fails. The call never returns an
// error; failures surface through ErrorMessage.
func (s *State) ToggleFavorite(ctx context.Context, photo favorites.PhotoRecord) {
	s.mu.Lock()
	if _, busy := s.inFlight[photo.ID]; busy {
		s.mu.Unlock()
		return
	}
	s.inFlight[photo.ID] = struct{}{}

	_, wasFavorite := s.members[photo.ID]
	if wasFavorite {
		delete(s.members, photo.ID)
	} else {
		s.members[photo.ID] = struct{}{}
	}
	s.mu.Unlock()

	if wasFavorite {
		s.settleRemove(ctx, photo)
	} else {
		s.settleAdd(ctx, photo)
	}
}

func (s *State) settleAdd(ctx context.Context, photo favorites.PhotoRecord) {
	result := s.store.Create(ctx, photo)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, photo.ID)

	if !result.Success {
		if result.Err != nil {
			s.logger.Warn("favorite add failed", zap.String("photo_id", photo.ID), zap.Error(result.Err))
		}
		delete(s.members, photo.ID)
		s.errMessage = messageOrDefault(result.Status, genericCreateFailure)
		return
	}

	record := result.Favorite
	if record == nil {
		// Store acknowledged without echoing a record; keep the list
		// consistent with the membership set from a local snapshot.
		record = &favorites.FavoriteRecord{
			PhotoID: photo.ID,
			Photo:   photo,
		}
	}

	filtered := make([]favorites.FavoriteRecord, 0, len(s.records)+1)
	filtered = append(filtered, *record)
	for _, existing := range s.records {
		if existing.PhotoID == record.PhotoID {
			continue
		}
		filtered = append(filtered, existing)
	}
	s.records = filtered
	s.members[record.PhotoID] = struct{}{}
}

func (s *State) settleRemove(ctx context.Context, photo favorites.PhotoRecord) {
	result := s.store.Delete(ctx, photo.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, photo.ID)

	if !result.Success {
		if result.Err != nil {
			s.logger.Warn("favorite remove failed", zap.String("photo_id", photo.ID), zap.Error(result.Err))
		}
		s.members[photo.ID] = struct{}{}
		s.errMessage = messageOrDefault(result.Status, genericDeleteFailure)
		return
	}

	filtered := make([]favorites.FavoriteRecord, 0, len(s.records))
	for _, existing := range s.records {
		if existing.PhotoID == photo.ID {
			continue
		}
		filtered = append(filtered, existing)
	}
	s.records = filtered
	delete(s.members, photo.ID)
}

func messageOrDefault(status Status, fallback string) string {
	if status.Message != "" {
		return status.Message
	}
	return fallback
}
