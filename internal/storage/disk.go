package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/xid"
)

// compile-time check that *Disk implements FileStore
var _ FileStore = (*Disk)(nil)

// refPrefix is the URL path prefix uploads are served under; the server
// mounts a file server on the same prefix.
const refPrefix = "/files/"

// Disk is a FileStore backed by a local directory. Stored names are
// xid-generated (unique, sortable, URL-safe), keeping only the extension
// from the client's filename — client names are untrusted input and never
// touch the filesystem.
type Disk struct {
	dir string
}

// NewDisk creates the upload directory if needed and returns a store
// rooted there.
func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: creating upload dir %s: %w", dir, err)
	}
	return &Disk{dir: dir}, nil
}

// Upload streams the blob to disk and returns its reference, e.g.
// "/files/cv37rs3pp9olc6atsptg.jpg".
func (d *Disk) Upload(_ context.Context, filename string, r io.Reader) (string, error) {
	name := xid.New().String() + strings.ToLower(filepath.Ext(filepath.Base(filename)))

	dst, err := os.Create(filepath.Join(d.dir, name))
	if err != nil {
		return "", fmt.Errorf("storage: creating file %s: %w", name, err)
	}

	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("storage: writing file %s: %w", name, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("storage: closing file %s: %w", name, err)
	}

	return refPrefix + name, nil
}

// CreateThumbnail derives a thumbnail reference next to the source blob:
// "/files/abc.mp4" → "/files/abc_thumb.jpg". The source must have been
// uploaded through this store.
//
// The derived file is currently an empty placeholder so the reference
// resolves; real frame extraction belongs to the external media service
// this store stands in for.
// TODO: shell out to ffmpeg for a real frame grab when media processing
// moves in-house.
func (d *Disk) CreateThumbnail(_ context.Context, ref string) error {
	name := path.Base(ref)
	if !strings.HasPrefix(ref, refPrefix) || name == "." || name == "/" {
		return fmt.Errorf("storage: invalid file reference %q", ref)
	}

	src := filepath.Join(d.dir, name)
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("storage: thumbnail source %q: %w", ref, err)
	}

	thumb := strings.TrimSuffix(name, path.Ext(name)) + "_thumb.jpg"
	f, err := os.Create(filepath.Join(d.dir, thumb))
	if err != nil {
		return fmt.Errorf("storage: creating thumbnail %s: %w", thumb, err)
	}
	return f.Close()
}

// Dir returns the directory uploads are stored in, for mounting a file
// server over it.
func (d *Disk) Dir() string {
	return d.dir
}
