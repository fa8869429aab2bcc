package task

import (
	"fmt"

	"github.com/taskdeck/taskdeck/pkg/cerr"
)

// ValidateDraft checks a draft before it is sent anywhere. A failing
// draft must never reach the gateway.
func ValidateDraft(d Draft) error {
	e := cerr.NewError(cerr.InvalidArgument, "invalid task", nil)
	if d.Title == "" {
		e.AddDetail("title must not be empty")
	}
	if d.OwnerID == "" {
		e.AddDetail("owner is required")
	}
	if !d.Category.Valid() {
		e.AddDetail(fmt.Sprintf("unknown category %q", d.Category))
	}
	if !d.Status.Valid() {
		e.AddDetail(fmt.Sprintf("unknown status %q", d.Status))
	}
	if len(d.Description) > DescriptionLimit {
		e.AddDetail(fmt.Sprintf("description exceeds %d characters", DescriptionLimit))
	}
	if len(e.Details) > 0 {
		return e
	}
	return nil
}

// ValidateRecord checks a full record before an update. Unlike a
// draft, a record must already carry a gateway-assigned ID.
func ValidateRecord(t Task) error {
	if t.ID == "" {
		return cerr.NewError(cerr.FailedPrecondition, "task has not been persisted yet", nil)
	}
	return ValidateDraft(Draft{
		OwnerID:     t.OwnerID,
		Title:       t.Title,
		Description: t.Description,
		Category:    t.Category,
		Status:      t.Status,
		DueDate:     t.DueDate,
	})
}
