package task

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/taskdeck/taskdeck/internal/attachment"
	"github.com/taskdeck/taskdeck/pkg/cerr"
)

// MaxAttachmentBytes caps a single uploaded file.
const MaxAttachmentBytes = 10 << 20

const formMaxMemory = 4 << 20

// ParseCreateForm builds a draft for ownerID from a submitted create
// form. Missing status defaults to todo, missing category to work,
// matching the form's initial selection.
func ParseCreateForm(r *http.Request, ownerID string) (Draft, *attachment.Upload, error) {
	if err := parseForm(r); err != nil {
		return Draft{}, nil, err
	}

	draft := Draft{
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: r.FormValue("description"),
		Category:    Category(r.FormValue("category")),
		Status:      Status(r.FormValue("status")),
	}
	if draft.Category == "" {
		draft.Category = CategoryWork
	}
	if draft.Status == "" {
		draft.Status = StatusTodo
	}

	due, err := parseDueDate(r.FormValue("due_date"))
	if err != nil {
		return Draft{}, nil, err
	}
	draft.DueDate = due

	up, err := formAttachment(r)
	if err != nil {
		return Draft{}, nil, err
	}
	return draft, up, nil
}

// ParseEditForm applies a submitted edit form onto an existing record.
// The ID, owner, attachment reference and audit timestamps of the
// existing record are kept; a newly attached file is returned
// separately for the gateway to upload.
func ParseEditForm(r *http.Request, existing Task) (Task, *attachment.Upload, error) {
	if err := parseForm(r); err != nil {
		return Task{}, nil, err
	}

	rec := existing
	rec.Title = strings.TrimSpace(r.FormValue("title"))
	rec.Description = r.FormValue("description")
	if v := r.FormValue("category"); v != "" {
		rec.Category = Category(v)
	}
	if v := r.FormValue("status"); v != "" {
		rec.Status = Status(v)
	}
	if v := r.FormValue("due_date"); v != "" {
		due, err := parseDueDate(v)
		if err != nil {
			return Task{}, nil, err
		}
		rec.DueDate = due
	}

	up, err := formAttachment(r)
	if err != nil {
		return Task{}, nil, err
	}
	return rec, up, nil
}

func parseForm(r *http.Request) error {
	ct := r.Header.Get("Content-Type")
	var err error
	if strings.HasPrefix(ct, "multipart/form-data") {
		err = r.ParseMultipartForm(formMaxMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return cerr.NewError(cerr.InvalidArgument, "malformed form", err)
	}
	return nil
}

func parseDueDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, cerr.NewError(cerr.InvalidArgument, "invalid due date", fmt.Errorf("unparseable due date %q", v))
}

func formAttachment(r *http.Request) (*attachment.Upload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, header, err := r.FormFile("attachment")
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		return nil, cerr.NewError(cerr.InvalidArgument, "malformed attachment", err)
	}
	defer file.Close()
	return readAttachment(file, header)
}

func readAttachment(file multipart.File, header *multipart.FileHeader) (*attachment.Upload, error) {
	if header.Size > MaxAttachmentBytes {
		return nil, cerr.NewError(cerr.InvalidArgument, "attachment too large", nil)
	}
	data, err := io.ReadAll(io.LimitReader(file, MaxAttachmentBytes+1))
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to read attachment: %w", err))
	}
	if len(data) > MaxAttachmentBytes {
		return nil, cerr.NewError(cerr.InvalidArgument, "attachment too large", nil)
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &attachment.Upload{
		Filename: header.Filename,
		Data:     data,
	}, nil
}
