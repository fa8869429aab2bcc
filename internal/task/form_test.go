package task

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/pkg/cerr"
)

func TestParseCreateForm(t *testing.T) {
	t.Run("defaults for omitted category and status", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/tasks", strings.NewReader(url.Values{
			"title": {"  write report  "},
		}.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		draft, up, err := ParseCreateForm(r, "alice")
		require.NoError(t, err)
		assert.Nil(t, up)
		assert.Equal(t, "alice", draft.OwnerID)
		assert.Equal(t, "write report", draft.Title)
		assert.Equal(t, CategoryWork, draft.Category)
		assert.Equal(t, StatusTodo, draft.Status)
		assert.True(t, draft.DueDate.IsZero())
	})

	t.Run("date-only due date", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/tasks", strings.NewReader(url.Values{
			"title":    {"write report"},
			"due_date": {"2026-09-15"},
		}.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		draft, _, err := ParseCreateForm(r, "alice")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC), draft.DueDate)
	})

	t.Run("unparseable due date", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/tasks", strings.NewReader(url.Values{
			"title":    {"write report"},
			"due_date": {"next tuesday"},
		}.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		_, _, err := ParseCreateForm(r, "alice")
		assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))
	})

	t.Run("multipart form with attachment", func(t *testing.T) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		require.NoError(t, mw.WriteField("title", "write report"))
		fw, err := mw.CreateFormFile("attachment", "notes.txt")
		require.NoError(t, err)
		_, err = fw.Write([]byte("meeting notes"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		r := httptest.NewRequest("POST", "/tasks", &body)
		r.Header.Set("Content-Type", mw.FormDataContentType())

		draft, up, err := ParseCreateForm(r, "alice")
		require.NoError(t, err)
		assert.Equal(t, "write report", draft.Title)
		require.NotNil(t, up)
		assert.Equal(t, "notes.txt", up.Filename)
		assert.Equal(t, []byte("meeting notes"), up.Data)
	})

	t.Run("multipart form without attachment", func(t *testing.T) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		require.NoError(t, mw.WriteField("title", "write report"))
		require.NoError(t, mw.Close())

		r := httptest.NewRequest("POST", "/tasks", &body)
		r.Header.Set("Content-Type", mw.FormDataContentType())

		_, up, err := ParseCreateForm(r, "alice")
		require.NoError(t, err)
		assert.Nil(t, up)
	})
}

func TestParseEditForm(t *testing.T) {
	existing := Task{
		ID:            "t1",
		OwnerID:       "alice",
		Title:         "old title",
		Category:      CategoryPersonal,
		Status:        StatusInProgress,
		AttachmentURL: "https://files.example.com/a.txt",
		CreatedAt:     time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC),
	}

	t.Run("preserves identity and attachment reference", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/tasks/t1", strings.NewReader(url.Values{
			"title":  {"new title"},
			"status": {"completed"},
		}.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		rec, up, err := ParseEditForm(r, existing)
		require.NoError(t, err)
		assert.Nil(t, up)
		assert.Equal(t, "t1", rec.ID)
		assert.Equal(t, "alice", rec.OwnerID)
		assert.Equal(t, "new title", rec.Title)
		assert.Equal(t, StatusCompleted, rec.Status)
		// Omitted fields keep their stored values.
		assert.Equal(t, CategoryPersonal, rec.Category)
		assert.Equal(t, existing.AttachmentURL, rec.AttachmentURL)
		assert.Equal(t, existing.CreatedAt, rec.CreatedAt)
	})
}
