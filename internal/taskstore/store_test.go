package taskstore

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/attachment"
	"github.com/taskdeck/taskdeck/internal/task"
	"github.com/taskdeck/taskdeck/pkg/cerr"
)

// fakeGateway scripts gateway responses and records how often each
// operation was reached.
type fakeGateway struct {
	listFn      func(ctx context.Context, ownerID string) ([]task.Task, error)
	createFn    func(ctx context.Context, draft task.Draft, att *attachment.Upload) (task.Task, error)
	updateFn    func(ctx context.Context, rec task.Task, att *attachment.Upload) (task.Task, error)
	listCalls   atomic.Int32
	createCalls atomic.Int32
	updateCalls atomic.Int32
}

func (g *fakeGateway) List(ctx context.Context, ownerID string) ([]task.Task, error) {
	g.listCalls.Add(1)
	return g.listFn(ctx, ownerID)
}

func (g *fakeGateway) Create(ctx context.Context, draft task.Draft, att *attachment.Upload) (task.Task, error) {
	g.createCalls.Add(1)
	return g.createFn(ctx, draft, att)
}

func (g *fakeGateway) Update(ctx context.Context, rec task.Task, att *attachment.Upload) (task.Task, error) {
	g.updateCalls.Add(1)
	return g.updateFn(ctx, rec, att)
}

func validDraft(owner string) task.Draft {
	return task.Draft{
		OwnerID:  owner,
		Title:    "write report",
		Category: task.CategoryWork,
		Status:   task.StatusTodo,
		DueDate:  time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}
}

func persisted(id, owner string, status task.Status) task.Task {
	return task.Task{
		ID:       id,
		OwnerID:  owner,
		Title:    "task " + id,
		Category: task.CategoryWork,
		Status:   status,
	}
}

func TestStoreCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("appends exactly one record on success", func(t *testing.T) {
		gw := &fakeGateway{
			createFn: func(_ context.Context, draft task.Draft, _ *attachment.Upload) (task.Task, error) {
				return task.Task{ID: "t1", OwnerID: draft.OwnerID, Title: draft.Title, Category: draft.Category, Status: draft.Status}, nil
			},
		}
		store := New(gw, "alice")

		created, err := store.Create(ctx, validDraft("alice"), nil)
		require.NoError(t, err)
		assert.Equal(t, "t1", created.ID)
		assert.Len(t, store.Snapshot(), 1)
		assert.EqualValues(t, 1, gw.createCalls.Load())
	})

	t.Run("invalid draft never reaches the gateway", func(t *testing.T) {
		gw := &fakeGateway{}
		store := New(gw, "alice")

		draft := validDraft("alice")
		draft.Title = ""
		_, err := store.Create(ctx, draft, nil)
		require.Error(t, err)
		assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))
		assert.EqualValues(t, 0, gw.createCalls.Load())
		assert.Empty(t, store.Snapshot())
	})

	t.Run("owner mismatch is rejected", func(t *testing.T) {
		gw := &fakeGateway{}
		store := New(gw, "alice")

		_, err := store.Create(ctx, validDraft("mallory"), nil)
		require.Error(t, err)
		assert.True(t, cerr.IsCode(err, cerr.PermissionDenied))
		assert.EqualValues(t, 0, gw.createCalls.Load())
	})

	t.Run("gateway failure leaves the collection unchanged", func(t *testing.T) {
		gw := &fakeGateway{
			createFn: func(context.Context, task.Draft, *attachment.Upload) (task.Task, error) {
				return task.Task{}, cerr.NewError(cerr.Unavailable, "document store unreachable", nil)
			},
		}
		store := New(gw, "alice")

		_, err := store.Create(ctx, validDraft("alice"), nil)
		require.Error(t, err)
		assert.Empty(t, store.Snapshot())
		assert.Error(t, store.Err())
	})
}

func TestStoreUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces exactly the matching record", func(t *testing.T) {
		gw := &fakeGateway{
			listFn: func(context.Context, string) ([]task.Task, error) {
				return []task.Task{
					persisted("t1", "alice", task.StatusTodo),
					persisted("t2", "alice", task.StatusTodo),
				}, nil
			},
			updateFn: func(_ context.Context, rec task.Task, _ *attachment.Upload) (task.Task, error) {
				return rec, nil
			},
		}
		store := New(gw, "alice")
		require.NoError(t, store.Load(ctx))

		rec, ok := store.Get("t2")
		require.True(t, ok)
		rec.Status = task.StatusCompleted

		updated, err := store.Update(ctx, rec, nil)
		require.NoError(t, err)
		assert.Equal(t, task.StatusCompleted, updated.Status)

		snapshot := store.Snapshot()
		require.Len(t, snapshot, 2)
		assert.Equal(t, task.StatusTodo, snapshot[0].Status)
		assert.Equal(t, task.StatusCompleted, snapshot[1].Status)
	})

	t.Run("record without an ID is rejected before the gateway", func(t *testing.T) {
		gw := &fakeGateway{}
		store := New(gw, "alice")

		rec := persisted("", "alice", task.StatusTodo)
		_, err := store.Update(ctx, rec, nil)
		require.Error(t, err)
		assert.True(t, cerr.IsCode(err, cerr.FailedPrecondition))
		assert.EqualValues(t, 0, gw.updateCalls.Load())
	})
}

func TestStoreLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("failure preserves the previous collection", func(t *testing.T) {
		healthy := true
		gw := &fakeGateway{
			listFn: func(context.Context, string) ([]task.Task, error) {
				if !healthy {
					return nil, cerr.NewError(cerr.Unavailable, "document store unreachable", nil)
				}
				return []task.Task{persisted("t1", "alice", task.StatusTodo)}, nil
			},
		}
		store := New(gw, "alice")
		require.NoError(t, store.Load(ctx))

		healthy = false
		require.Error(t, store.Load(ctx))
		assert.Len(t, store.Snapshot(), 1)
		assert.Error(t, store.Err())

		healthy = true
		require.NoError(t, store.Load(ctx))
		assert.NoError(t, store.Err())
	})

	t.Run("superseded load is discarded", func(t *testing.T) {
		release := make(chan struct{})
		var calls atomic.Int32
		gw := &fakeGateway{
			listFn: func(context.Context, string) ([]task.Task, error) {
				if calls.Add(1) == 1 {
					// First load resolves only after the second one.
					<-release
					return []task.Task{persisted("stale", "alice", task.StatusTodo)}, nil
				}
				return []task.Task{persisted("fresh", "alice", task.StatusTodo)}, nil
			},
		}
		store := New(gw, "alice")

		done := make(chan error, 1)
		go func() { done <- store.Load(ctx) }()

		// Wait for the first load to be in flight before issuing the second.
		require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
		require.NoError(t, store.Load(ctx))

		close(release)
		require.NoError(t, <-done)

		snapshot := store.Snapshot()
		require.Len(t, snapshot, 1)
		assert.Equal(t, "fresh", snapshot[0].ID)
	})

	t.Run("superseded load failure is discarded silently", func(t *testing.T) {
		release := make(chan struct{})
		var calls atomic.Int32
		gw := &fakeGateway{
			listFn: func(context.Context, string) ([]task.Task, error) {
				if calls.Add(1) == 1 {
					<-release
					return nil, cerr.NewError(cerr.Unavailable, "document store unreachable", nil)
				}
				return []task.Task{persisted("fresh", "alice", task.StatusTodo)}, nil
			},
		}
		store := New(gw, "alice")

		done := make(chan error, 1)
		go func() { done <- store.Load(ctx) }()

		require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
		require.NoError(t, store.Load(ctx))

		close(release)
		require.NoError(t, <-done)
		assert.NoError(t, store.Err())
		assert.Len(t, store.Snapshot(), 1)
	})
}

func TestStoreEnsureFresh(t *testing.T) {
	ctx := context.Background()

	gw := &fakeGateway{
		listFn: func(context.Context, string) ([]task.Task, error) {
			return []task.Task{persisted("t1", "alice", task.StatusTodo)}, nil
		},
	}
	store := New(gw, "alice")

	require.NoError(t, store.EnsureFresh(ctx))
	require.NoError(t, store.EnsureFresh(ctx))
	assert.EqualValues(t, 1, gw.listCalls.Load())

	store.MarkStale()
	require.NoError(t, store.EnsureFresh(ctx))
	assert.EqualValues(t, 2, gw.listCalls.Load())
}

func TestManagerFor(t *testing.T) {
	gw := &fakeGateway{}
	m := NewManager(gw)

	a := m.For("alice")
	b := m.For("bob")
	assert.NotSame(t, a, b)
	assert.Same(t, a, m.For("alice"))
	assert.Equal(t, "alice", a.OwnerID())
}
