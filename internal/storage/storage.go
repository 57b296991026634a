// Package storage abstracts the file/media store the feed core uploads to.
//
// In the deployed system this is an external media service; the Disk
// implementation below satisfies the same contract on the local
// filesystem, which is also what tests run against.
package storage

import (
	"context"
	"io"
)

// FileStore accepts binary blobs and hands back stable references.
// References are opaque to callers — they are stored on the feed verbatim
// and served back to clients unchanged.
type FileStore interface {
	// Upload stores the blob and returns its reference (a URL path).
	// filename is the client's original name; only its extension is
	// significant to the store.
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)

	// CreateThumbnail derives a thumbnail for an already-uploaded
	// reference. The derived reference is a side effect on the store and
	// is not reported back to the caller.
	CreateThumbnail(ctx context.Context, ref string) error
}
