// Package storage provides the blob sinks avatar uploads are written
// to: a local filesystem store and an S3-compatible store.
package storage

import (
	"context"
	"io"
)

// Store writes a named blob and reports completion. Put must not return
// until the bytes are durably written; callers record the name in the
// database only after Put succeeds.
type Store interface {
	Put(ctx context.Context, name string, r io.Reader) error
}
