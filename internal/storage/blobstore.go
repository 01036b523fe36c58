// Package storage implements a flat blob namespace: agents, channels,
// invitations, and messages are mapped onto a key/value blob store with
// secondary indices, behind an abstract BlobStore interface so the
// production S3 backend and the in-memory test backend share one
// adapter implementation.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when a key does not exist. Head reports
// a missing key as (false, nil), and Delete of a missing key returns nil.
var ErrNotFound = errors.New("blob not found")

// BlobStore is the abstract key/value object-storage interface the
// adapter is built on: Put/Get/Head/Delete/List over an arbitrary
// string key namespace, with exact key strings that external backup
// and migration tooling can depend on directly.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Head(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	// List returns every key with the given prefix, order unspecified.
	List(ctx context.Context, prefix string) ([]string, error)
}
