package attachment

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/taskdeck/taskdeck/pkg/cerr"
	"github.com/taskdeck/taskdeck/pkg/storage"
)

// Prefix is the storage directory holding uploaded files.
const Prefix = "attachments"

// Upload is a file received from a form, not yet stored anywhere.
type Upload struct {
	Filename string
	Data     []byte
}

// Uploader writes attachment blobs to storage and hands back the
// reference URL to embed in a task document. The upload must complete
// before the referencing document is written.
type Uploader struct {
	storage storage.Storage
}

func NewUploader(s storage.Storage) *Uploader {
	return &Uploader{storage: s}
}

func (u *Uploader) Upload(ctx context.Context, up Upload) (string, error) {
	if len(up.Data) == 0 {
		return "", cerr.NewError(cerr.InvalidArgument, "attachment is empty", nil)
	}
	key := fmt.Sprintf("%s/%s_%s", Prefix, ulid.Make().String(), sanitize(up.Filename))
	if err := u.storage.Write(ctx, key, up.Data); err != nil {
		return "", cerr.WrapStorageWriteError("attachment", err)
	}
	return u.storage.URL(key), nil
}

func sanitize(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return "file"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
}
