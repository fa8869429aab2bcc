package taskstore

import (
	"context"
	"sync"

	"github.com/taskdeck/taskdeck/internal/attachment"
	"github.com/taskdeck/taskdeck/internal/task"
	"github.com/taskdeck/taskdeck/pkg/cerr"
)

// Gateway is the remote boundary the store round-trips through. Every
// mutation is issued to the gateway first; the cached collection is
// only touched after the gateway has resolved.
type Gateway interface {
	List(ctx context.Context, ownerID string) ([]task.Task, error)
	Create(ctx context.Context, draft task.Draft, att *attachment.Upload) (task.Task, error)
	Update(ctx context.Context, rec task.Task, att *attachment.Upload) (task.Task, error)
}

// Store caches the task collection of a single owner. Load, Create and
// Update are the only mutators; readers get snapshot copies and never
// observe a partially applied mutation.
//
// Concurrent loads are guarded by a monotonically increasing sequence
// number: a load result is applied only if no newer load has been
// issued meanwhile, so the visible collection always reflects the most
// recently initiated load, not the most recently resolved one.
type Store struct {
	gw      Gateway
	ownerID string

	mu        sync.Mutex
	tasks     []task.Task
	lastErr   error
	issuedSeq uint64
	loaded    bool
	stale     bool
}

func New(gw Gateway, ownerID string) *Store {
	return &Store{
		gw:      gw,
		ownerID: ownerID,
	}
}

func (s *Store) OwnerID() string {
	return s.ownerID
}

// Load fetches the owner's records and replaces the held collection
// wholesale. On failure the previous collection is preserved and the
// error reason retained. A load superseded by a newer one is discarded
// silently, including its error.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	s.issuedSeq++
	seq := s.issuedSeq
	s.mu.Unlock()

	tasks, err := s.gw.List(ctx, s.ownerID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.issuedSeq {
		return nil
	}
	if err != nil {
		s.lastErr = err
		return err
	}
	s.tasks = tasks
	s.lastErr = nil
	s.loaded = true
	s.stale = false
	return nil
}

// Create validates the draft locally, sends it through the gateway and
// appends the returned record. An invalid draft never reaches the
// gateway; a gateway failure leaves the collection unchanged.
func (s *Store) Create(ctx context.Context, draft task.Draft, att *attachment.Upload) (task.Task, error) {
	if draft.OwnerID != s.ownerID {
		return task.Task{}, cerr.NewError(cerr.PermissionDenied, "task owner does not match store owner", nil)
	}
	if err := task.ValidateDraft(draft); err != nil {
		return task.Task{}, err
	}

	created, err := s.gw.Create(ctx, draft, att)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		return task.Task{}, err
	}
	s.tasks = append(s.tasks, created)
	s.lastErr = nil
	return created, nil
}

// Update sends the full record through the gateway and replaces the
// matching cached record by ID. Drafts (records without an ID) are
// rejected before the gateway is involved.
func (s *Store) Update(ctx context.Context, rec task.Task, att *attachment.Upload) (task.Task, error) {
	if rec.OwnerID != s.ownerID {
		return task.Task{}, cerr.NewError(cerr.PermissionDenied, "task owner does not match store owner", nil)
	}
	if err := task.ValidateRecord(rec); err != nil {
		return task.Task{}, err
	}

	updated, err := s.gw.Update(ctx, rec, att)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		return task.Task{}, err
	}
	for i := range s.tasks {
		if s.tasks[i].ID == updated.ID {
			s.tasks[i] = updated
			break
		}
	}
	s.lastErr = nil
	return updated, nil
}

// Snapshot returns a copy of the current collection.
func (s *Store) Snapshot() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]task.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Get returns the cached record with the given ID, if present.
func (s *Store) Get(id string) (task.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return s.tasks[i], true
		}
	}
	return task.Task{}, false
}

// Err returns the reason of the last failed operation, if the store is
// currently in an error state.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// MarkStale flags the cache for reload on the next EnsureFresh call,
// e.g. after an out-of-band change to the underlying documents.
func (s *Store) MarkStale() {
	s.mu.Lock()
	s.stale = true
	s.mu.Unlock()
}

// EnsureFresh loads the collection if it has never been loaded or has
// been marked stale.
func (s *Store) EnsureFresh(ctx context.Context) error {
	s.mu.Lock()
	fresh := s.loaded && !s.stale
	s.mu.Unlock()
	if fresh {
		return nil
	}
	return s.Load(ctx)
}
