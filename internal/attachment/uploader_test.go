package attachment

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/pkg/cerr"
	"github.com/taskdeck/taskdeck/pkg/storage"
)

func TestUpload(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	u := NewUploader(store)

	url, err := u.Upload(ctx, Upload{Filename: "notes.txt", Data: []byte("meeting notes")})
	require.NoError(t, err)
	assert.True(t, strings.Contains(url, Prefix+"/"))
	assert.True(t, strings.HasSuffix(url, "_notes.txt"))

	// The blob is readable under the key embedded in the URL.
	key := url[strings.Index(url, Prefix+"/"):]
	data, err := store.Read(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("meeting notes"), data)
}

func TestUploadEmpty(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	u := NewUploader(store)

	_, err = u.Upload(context.Background(), Upload{Filename: "empty.txt"})
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain name", "notes.txt", "notes.txt"},
		{"path stripped", "../../etc/passwd", "passwd"},
		{"windows path stripped", `C:\Users\alice\report.pdf`, "report.pdf"},
		{"special characters replaced", "my report (final).pdf", "my_report__final_.pdf"},
		{"empty name", "", "file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitize(tt.in); got != tt.want {
				t.Errorf("sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
