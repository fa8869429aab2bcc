package gateway

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/taskdeck/taskdeck/internal/attachment"
	"github.com/taskdeck/taskdeck/internal/eventbus"
	"github.com/taskdeck/taskdeck/internal/task"
	"github.com/taskdeck/taskdeck/pkg/cerr"
)

// Gateway is the persistence boundary for tasks: documents go to the
// task repository, attachment blobs to the uploader. An attachment is
// always fully uploaded before the document referencing it is written,
// so a stored task never points at an upload still in flight.
type Gateway struct {
	repo     task.Repository
	uploader *attachment.Uploader
	bus      *eventbus.Bus
}

func New(repo task.Repository, uploader *attachment.Uploader, bus *eventbus.Bus) *Gateway {
	return &Gateway{
		repo:     repo,
		uploader: uploader,
		bus:      bus,
	}
}

func (g *Gateway) List(ctx context.Context, ownerID string) ([]task.Task, error) {
	if ownerID == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "owner is required", nil)
	}
	records, err := g.repo.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	tasks := make([]task.Task, len(records))
	for i, t := range records {
		tasks[i] = *t
	}
	return tasks, nil
}

// Create persists a draft, assigning its ID and timestamps. A failed
// attachment upload fails the whole create.
func (g *Gateway) Create(ctx context.Context, draft task.Draft, att *attachment.Upload) (task.Task, error) {
	if err := task.ValidateDraft(draft); err != nil {
		return task.Task{}, err
	}

	var attachmentURL string
	if att != nil {
		url, err := g.uploader.Upload(ctx, *att)
		if err != nil {
			return task.Task{}, err
		}
		attachmentURL = url
	}

	now := time.Now()
	t := &task.Task{
		ID:            ulid.Make().String(),
		OwnerID:       draft.OwnerID,
		Title:         draft.Title,
		Description:   draft.Description,
		Category:      draft.Category,
		Status:        draft.Status,
		DueDate:       draft.DueDate,
		AttachmentURL: attachmentURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := g.repo.Create(ctx, t); err != nil {
		return task.Task{}, err
	}

	g.bus.PublishNew(eventbus.TypeTaskCreated, t.OwnerID, t.ID)
	return *t, nil
}

// Update replaces the stored record matching rec.ID. The stored
// owner and creation timestamp always win over whatever the caller
// sent; a new attachment replaces the reference, otherwise the
// caller's existing reference is preserved.
func (g *Gateway) Update(ctx context.Context, rec task.Task, att *attachment.Upload) (task.Task, error) {
	if err := task.ValidateRecord(rec); err != nil {
		return task.Task{}, err
	}

	existing, err := g.repo.Get(ctx, rec.ID)
	if err != nil {
		return task.Task{}, err
	}
	if existing.OwnerID != rec.OwnerID {
		// Do not reveal other owners' tasks.
		return task.Task{}, cerr.NewError(cerr.NotFound, "task not found", nil)
	}

	if att != nil {
		url, err := g.uploader.Upload(ctx, *att)
		if err != nil {
			return task.Task{}, err
		}
		rec.AttachmentURL = url
	}

	rec.OwnerID = existing.OwnerID
	rec.CreatedAt = existing.CreatedAt
	rec.UpdatedAt = time.Now()
	if err := g.repo.Update(ctx, &rec); err != nil {
		return task.Task{}, err
	}

	g.bus.PublishNew(eventbus.TypeTaskUpdated, rec.OwnerID, rec.ID)
	return rec, nil
}
