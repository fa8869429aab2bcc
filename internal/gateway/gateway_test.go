package gateway

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/attachment"
	"github.com/taskdeck/taskdeck/internal/eventbus"
	"github.com/taskdeck/taskdeck/internal/task"
	taskrepo "github.com/taskdeck/taskdeck/internal/task/repositoryimpl"
	"github.com/taskdeck/taskdeck/pkg/cerr"
	"github.com/taskdeck/taskdeck/pkg/storage"
)

func newGateway(t *testing.T) (*Gateway, *eventbus.Bus) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	bus := eventbus.New()
	return New(taskrepo.NewYAMLRepository(store), attachment.NewUploader(store), bus), bus
}

func draft(owner string) task.Draft {
	return task.Draft{
		OwnerID:  owner,
		Title:    "write report",
		Category: task.CategoryWork,
		Status:   task.StatusTodo,
		DueDate:  time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestGatewayCreate(t *testing.T) {
	ctx := context.Background()
	gw, bus := newGateway(t)

	_, events := bus.Subscribe(4)

	created, err := gw.Create(ctx, draft("alice"), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "alice", created.OwnerID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	select {
	case ev := <-events:
		assert.Equal(t, eventbus.TypeTaskCreated, ev.Type)
		assert.Equal(t, created.ID, ev.TaskID)
		assert.Equal(t, "alice", ev.OwnerID)
	default:
		t.Fatal("expected a task.created event")
	}

	tasks, err := gw.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, created.ID, tasks[0].ID)
}

func TestGatewayCreateWithAttachment(t *testing.T) {
	ctx := context.Background()
	gw, _ := newGateway(t)

	created, err := gw.Create(ctx, draft("alice"), &attachment.Upload{
		Filename: "notes.txt",
		Data:     []byte("meeting notes"),
	})
	require.NoError(t, err)
	assert.True(t, strings.Contains(created.AttachmentURL, "attachments/"))
	assert.True(t, strings.HasSuffix(created.AttachmentURL, "_notes.txt"))
}

func TestGatewayListRequiresOwner(t *testing.T) {
	gw, _ := newGateway(t)

	_, err := gw.List(context.Background(), "")
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))
}

func TestGatewayUpdate(t *testing.T) {
	ctx := context.Background()
	gw, _ := newGateway(t)

	created, err := gw.Create(ctx, draft("alice"), nil)
	require.NoError(t, err)

	rec := created
	rec.Status = task.StatusCompleted
	// The stored creation timestamp wins over whatever the caller sends.
	rec.CreatedAt = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

	updated, err := gw.Update(ctx, rec, nil)
	require.NoError(t, err)
	assert.Equal(t, task.StatusCompleted, updated.Status)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt) || updated.UpdatedAt.Equal(updated.CreatedAt))
}

func TestGatewayUpdateOwnerMismatch(t *testing.T) {
	ctx := context.Background()
	gw, _ := newGateway(t)

	created, err := gw.Create(ctx, draft("alice"), nil)
	require.NoError(t, err)

	rec := created
	rec.OwnerID = "mallory"
	_, err = gw.Update(ctx, rec, nil)
	// Another owner's probe gets not_found, not permission_denied.
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestGatewayUpdateMissingTask(t *testing.T) {
	gw, _ := newGateway(t)

	rec := task.Task{
		ID:       "01JX0000000000000000000001",
		OwnerID:  "alice",
		Title:    "ghost",
		Category: task.CategoryWork,
		Status:   task.StatusTodo,
	}
	_, err := gw.Update(context.Background(), rec, nil)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestGatewayUpdateReplacesAttachment(t *testing.T) {
	ctx := context.Background()
	gw, _ := newGateway(t)

	created, err := gw.Create(ctx, draft("alice"), &attachment.Upload{
		Filename: "v1.txt",
		Data:     []byte("first"),
	})
	require.NoError(t, err)

	updated, err := gw.Update(ctx, created, &attachment.Upload{
		Filename: "v2.txt",
		Data:     []byte("second"),
	})
	require.NoError(t, err)
	assert.NotEqual(t, created.AttachmentURL, updated.AttachmentURL)
	assert.True(t, strings.HasSuffix(updated.AttachmentURL, "_v2.txt"))

	// No new upload keeps the existing reference.
	again, err := gw.Update(ctx, updated, nil)
	require.NoError(t, err)
	assert.Equal(t, updated.AttachmentURL, again.AttachmentURL)
}
