// Package favsync holds the client-side favorites state: an optimistic
// membership set and ordered record list kept in step with the remote
// favorites store, with rollback when a remote call fails.
package favsync

import (
	"context"

	"github.com/luxor-photos/luxor/internal/favorites"
)

// Status is the uniform outcome shape every remote store call resolves to.
// Success=false with a nil Err is a logical failure reported by the store;
// Success=false with Err set is a transport or decoding failure. Message is
// safe to surface to the user; Err is for logs only.
type Status struct {
	Success bool
	Message string
	Err     error
}

// ListResult is the outcome of listing the owner's favorites.
type ListResult struct {
	Status
	Favorites []favorites.FavoriteRecord
}

// CreateResult is the outcome of creating a favorite. Favorite carries the
// record echoed by the store; nil means the store acknowledged the create
// without echoing one.
type CreateResult struct {
	Status
	Favorite *favorites.FavoriteRecord
}

// DeleteResult is the outcome of deleting a favorite by photo id.
type DeleteResult struct {
	Status
}

// RemoteStore is the favorites store as seen from the client. Implementations
// never panic and never leak transport errors: every call settles into a
// result value.
type RemoteStore interface {
	List(ctx context.Context) ListResult
	Create(ctx context.Context, photo favorites.PhotoRecord) CreateResult
	Delete(ctx context.Context, photoID string) DeleteResult
}
