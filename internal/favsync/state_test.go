package favsync

import (
	"context"
	"errors"
	"testing"

	"github.com/luxor-photos/luxor/internal/favorites"
)

// fakeStore scripts the remote store's answers and records the calls made.
type fakeStore struct {
	listResult   ListResult
	createResult CreateResult
	deleteResult DeleteResult
	listCalls    int
	createCalls  int
	deleteCalls  int
	createdPhoto string
	deletedPhoto string

	// When set, Create blocks until the channel is closed, so tests can
	// observe the optimistic state mid-flight.
	createGate chan struct{}
	// Signalled once Create has been entered.
	createEntered chan struct{}
}

func (f *fakeStore) List(context.Context) ListResult {
	f.listCalls++
	return f.listResult
}

func (f *fakeStore) Create(_ context.Context, photo favorites.PhotoRecord) CreateResult {
	f.createCalls++
	f.createdPhoto = photo.ID
	if f.createEntered != nil {
		close(f.createEntered)
		f.createEntered = nil
	}
	if f.createGate != nil {
		<-f.createGate
	}
	return f.createResult
}

func (f *fakeStore) Delete(_ context.Context, photoID string) DeleteResult {
	f.deleteCalls++
	f.deletedPhoto = photoID
	return f.deleteResult
}

func newTestState(t *testing.T, store RemoteStore) *State {
	t.Helper()
	state, err := NewState(StateConfig{Store: store})
	if err != nil {
		t.Fatalf("failed to build state: %v", err)
	}
	return state
}

func record(photoID string) favorites.FavoriteRecord {
	return favorites.FavoriteRecord{
		ID:      "fav-" + photoID,
		PhotoID: photoID,
		Photo:   favorites.PhotoRecord{ID: photoID},
	}
}

// assertConsistent checks the membership set and the ordered list agree.
func assertConsistent(t *testing.T, state *State) {
	t.Helper()
	records := state.Favorites()
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if _, dup := seen[r.PhotoID]; dup {
			t.Fatalf("duplicate photo id %q in favorites list", r.PhotoID)
		}
		seen[r.PhotoID] = struct{}{}
		if !state.IsFavorite(r.PhotoID) {
			t.Fatalf("photo %q listed but not a member", r.PhotoID)
		}
	}
	for id := range seen {
		if !state.IsFavorite(id) {
			t.Fatalf("membership lost for %q", id)
		}
	}
}

func TestReloadEmptyStore(t *testing.T) {
	store := &fakeStore{listResult: ListResult{
		Status:    Status{Success: true},
		Favorites: []favorites.FavoriteRecord{},
	}}
	state := newTestState(t, store)

	state.Reload(context.Background())

	if len(state.Favorites()) != 0 {
		t.Fatalf("expected empty favorites")
	}
	if state.IsLoading() {
		t.Fatalf("loading flag must be cleared")
	}
	if state.ErrorMessage() != "" {
		t.Fatalf("unexpected error %q", state.ErrorMessage())
	}
}

func TestReloadBuildsMembershipFromRecords(t *testing.T) {
	store := &fakeStore{listResult: ListResult{
		Status:    Status{Success: true},
		Favorites: []favorites.FavoriteRecord{record("p2"), record("p1")},
	}}
	state := newTestState(t, store)

	state.Reload(context.Background())

	records := state.Favorites()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	// Store order is authoritative, not re-sorted client-side.
	if records[0].PhotoID != "p2" || records[1].PhotoID != "p1" {
		t.Fatalf("store order not preserved: %q, %q", records[0].PhotoID, records[1].PhotoID)
	}
	if !state.IsFavorite("p1") || !state.IsFavorite("p2") {
		t.Fatalf("membership set not rebuilt")
	}
	assertConsistent(t, state)
}

func TestReloadIsIdempotent(t *testing.T) {
	store := &fakeStore{listResult: ListResult{
		Status:    Status{Success: true},
		Favorites: []favorites.FavoriteRecord{record("p1")},
	}}
	state := newTestState(t, store)

	state.Reload(context.Background())
	first := state.Favorites()
	state.Reload(context.Background())
	second := state.Favorites()

	if len(first) != len(second) || first[0].PhotoID != second[0].PhotoID {
		t.Fatalf("repeated reload diverged: %+v vs %+v", first, second)
	}
	assertConsistent(t, state)
}

func TestReloadLogicalFailureResetsState(t *testing.T) {
	store := &fakeStore{listResult: ListResult{
		Status:    Status{Success: true},
		Favorites: []favorites.FavoriteRecord{record("p1")},
	}}
	state := newTestState(t, store)
	state.Reload(context.Background())

	store.listResult = ListResult{Status: Status{Message: "boom"}}
	state.Reload(context.Background())

	if len(state.Favorites()) != 0 || state.IsFavorite("p1") {
		t.Fatalf("failed reload must reset favorites and membership")
	}
	if state.ErrorMessage() != "boom" {
		t.Fatalf("expected store message, got %q", state.ErrorMessage())
	}
	if state.IsLoading() {
		t.Fatalf("loading flag must be cleared on failure")
	}
}

func TestReloadTransportFailureUsesGenericMessage(t *testing.T) {
	store := &fakeStore{listResult: ListResult{
		Status: Status{Err: errors.New("connection refused")},
	}}
	state := newTestState(t, store)

	state.Reload(context.Background())

	if state.ErrorMessage() != genericListFailure {
		t.Fatalf("transport cause must not surface verbatim, got %q", state.ErrorMessage())
	}
	if state.IsLoading() {
		t.Fatalf("loading flag must be cleared on failure")
	}
}

func TestReloadClearsPreviousError(t *testing.T) {
	store := &fakeStore{listResult: ListResult{Status: Status{Message: "boom"}}}
	state := newTestState(t, store)
	state.Reload(context.Background())
	if state.ErrorMessage() == "" {
		t.Fatalf("expected an error to be set")
	}

	store.listResult = ListResult{Status: Status{Success: true}}
	state.Reload(context.Background())
	if state.ErrorMessage() != "" {
		t.Fatalf("reload must clear a stale error, got %q", state.ErrorMessage())
	}
}

func TestToggleAddCommit(t *testing.T) {
	stored := record("p1")
	store := &fakeStore{createResult: CreateResult{
		Status:   Status{Success: true},
		Favorite: &stored,
	}}
	state := newTestState(t, store)

	state.ToggleFavorite(context.Background(), favorites.PhotoRecord{ID: "p1"})

	if !state.IsFavorite("p1") {
		t.Fatalf("expected p1 to be a member after commit")
	}
	records := state.Favorites()
	if len(records) != 1 || records[0].PhotoID != "p1" {
		t.Fatalf("expected exactly one record for p1, got %+v", records)
	}
	if store.createdPhoto != "p1" {
		t.Fatalf("store saw photo %q", store.createdPhoto)
	}
	assertConsistent(t, state)
}

func TestToggleAddSplicesAtHead(t *testing.T) {
	stored := record("p1")
	store := &fakeStore{
		listResult: ListResult{
			Status:    Status{Success: true},
			Favorites: []favorites.FavoriteRecord{record("p2")},
		},
		createResult: CreateResult{Status: Status{Success: true}, Favorite: &stored},
	}
	state := newTestState(t, store)
	state.Reload(context.Background())

	state.ToggleFavorite(context.Background(), favorites.PhotoRecord{ID: "p1"})

	records := state.Favorites()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].PhotoID != "p1" || records[1].PhotoID != "p2" {
		t.Fatalf("new favorite must be spliced at the head: %q, %q", records[0].PhotoID, records[1].PhotoID)
	}
	assertConsistent(t, state)
}

func TestToggleAddOptimisticMutationVisibleBeforeSettlement(t *testing.T) {
	stored := record("p1")
	gate := make(chan struct{})
	entered := make(chan struct{})
	store := &fakeStore{
		createResult:  CreateResult{Status: Status{Success: true}, Favorite: &stored},
		createGate:    gate,
		createEntered: entered,
	}
	state := newTestState(t, store)

	done := make(chan struct{})
	go func() {
		state.ToggleFavorite(context.Background(), favorites.PhotoRecord{ID: "p1"})
		close(done)
	}()

	<-entered
	if !state.IsFavorite("p1") {
		t.Fatalf("optimistic add must be visible before the remote call settles")
	}
	if len(state.Favorites()) != 0 {
		t.Fatalf("record list must not change before settlement")
	}

	close(gate)
	<-done
	if len(state.Favorites()) != 1 {
		t.Fatalf("expected spliced record after settlement")
	}
	assertConsistent(t, state)
}

func TestToggleAddLogicalFailureRollsBack(t *testing.T) {
	store := &fakeStore{createResult: CreateResult{Status: Status{Message: "boom"}}}
	state := newTestState(t, store)

	state.ToggleFavorite(context.Background(), favorites.PhotoRecord{ID: "p1"})

	if state.IsFavorite("p1") {
		t.Fatalf("failed add must roll back membership")
	}
	if len(state.Favorites()) != 0 {
		t.Fatalf("favorites list must be unchanged")
	}
	if state.ErrorMessage() != "boom" {
		t.Fatalf("expected store message, got %q", state.ErrorMessage())
	}
	assertConsistent(t, state)
}

func TestToggleAddTransportFailureRollsBack(t *testing.T) {
	store := &fakeStore{createResult: CreateResult{
		Status: Status{Err: errors.New("dial tcp: connection refused")},
	}}
	state := newTestState(t, store)

	state.ToggleFavorite(context.Background(), favorites.PhotoRecord{ID: "p1"})

	if state.IsFavorite("p1") {
		t.Fatalf("failed add must roll back membership")
	}
	if state.ErrorMessage() != genericCreateFailure {
		t.Fatalf("transport cause must not surface verbatim, got %q", state.ErrorMessage())
	}
	assertConsistent(t, state)
}

func TestToggleAddWithoutEchoKeepsStateConsistent(t *testing.T) {
	store := &fakeStore{createResult: CreateResult{Status: Status{Success: true}}}
	state := newTestState(t, store)

	photo := favorites.PhotoRecord{ID: "p1"}
	state.ToggleFavorite(context.Background(), photo)

	if !state.IsFavorite("p1") {
		t.Fatalf("expected membership after acknowledged add")
	}
	records := state.Favorites()
	if len(records) != 1 || records[0].PhotoID != "p1" {
		t.Fatalf("expected local snapshot record, got %+v", records)
	}
	assertConsistent(t, state)
}

func TestToggleRemoveCommit(t *testing.T) {
	store := &fakeStore{
		listResult: ListResult{
			Status:    Status{Success: true},
			Favorites: []favorites.FavoriteRecord{record("p1")},
		},
		deleteResult: DeleteResult{Status: Status{Success: true}},
	}
	state := newTestState(t, store)
	state.Reload(context.Background())

	state.ToggleFavorite(context.Background(), favorites.PhotoRecord{ID: "p1"})

	if state.IsFavorite("p1") {
		t.Fatalf("expected p1 removed")
	}
	if len(state.Favorites()) != 0 {
		t.Fatalf("expected empty list after remove")
	}
	if store.deletedPhoto != "p1" {
		t.Fatalf("store saw photo %q", store.deletedPhoto)
	}
	assertConsistent(t, state)
}

func TestToggleRemoveFailureRollsBack(t *testing.T) {
	store := &fakeStore{
		listResult: ListResult{
			Status:    Status{Success: true},
			Favorites: []favorites.FavoriteRecord{record("p1")},
		},
		deleteResult: DeleteResult{Status: Status{Message: "not found"}},
	}
	state := newTestState(t, store)
	state.Reload(context.Background())

	state.ToggleFavorite(context.Background(), favorites.PhotoRecord{ID: "p1"})

	if !state.IsFavorite("p1") {
		t.Fatalf("failed remove must restore membership")
	}
	if len(state.Favorites()) != 1 {
		t.Fatalf("favorites list must be unchanged")
	}
	if state.ErrorMessage() != "not found" {
		t.Fatalf("expected store message, got %q", state.ErrorMessage())
	}
	assertConsistent(t, state)
}

func TestToggleIgnoredWhileSamePhotoInFlight(t *testing.T) {
	stored := record("p1")
	gate := make(chan struct{})
	entered := make(chan struct{})
	store := &fakeStore{
		createResult:  CreateResult{Status: Status{Success: true}, Favorite: &stored},
		createGate:    gate,
		createEntered: entered,
	}
	state := newTestState(t, store)

	done := make(chan struct{})
	go func() {
		state.ToggleFavorite(context.Background(), favorites.PhotoRecord{ID: "p1"})
		close(done)
	}()

	<-entered
	// Second toggle for the same photo while the first is unsettled: no-op.
	state.ToggleFavorite(context.Background(), favorites.PhotoRecord{ID: "p1"})
	if !state.IsFavorite("p1") {
		t.Fatalf("guarded toggle must not flip the optimistic state")
	}

	close(gate)
	<-done

	if store.createCalls != 1 {
		t.Fatalf("expected a single create call, got %d", store.createCalls)
	}
	if store.deleteCalls != 0 {
		t.Fatalf("guarded toggle must not issue a delete")
	}
	if !state.IsFavorite("p1") {
		t.Fatalf("expected p1 committed")
	}
	assertConsistent(t, state)
}

func TestClearError(t *testing.T) {
	store := &fakeStore{createResult: CreateResult{Status: Status{Message: "boom"}}}
	state := newTestState(t, store)

	state.ToggleFavorite(context.Background(), favorites.PhotoRecord{ID: "p1"})
	if state.ErrorMessage() == "" {
		t.Fatalf("expected an error to be set")
	}

	state.ClearError()
	if state.ErrorMessage() != "" {
		t.Fatalf("expected error cleared")
	}
}

func TestNewStateRequiresStore(t *testing.T) {
	if _, err := NewState(StateConfig{}); !errors.Is(err, errMissingStore) {
		t.Fatalf("expected missing store error, got %v", err)
	}
}
