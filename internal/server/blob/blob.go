// Package blob abstracts physical byte storage behind the Sink interface.
// The database stays authoritative for metadata; sinks hold the bytes and
// are treated as best-effort during cleanup.
package blob

import (
	"context"
	"io"
)

// Sink stores file bytes under slash-separated keys.
//
// Delete of a key that does not exist must return nil: callers treat
// "already gone" as successful cleanup, not as a failure.
type Sink interface {
	// Put streams r into the sink under key and returns the byte count.
	Put(ctx context.Context, key string, r io.Reader) (int64, error)

	// Open returns a reader over the stored bytes.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the stored bytes. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether key currently holds bytes.
	Exists(ctx context.Context, key string) (bool, error)
}
