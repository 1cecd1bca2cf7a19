// Package storage provides the keyed object stores the pipeline reads mail,
// artifacts, and analysis results from and writes ledger files to.
package storage

import (
	"context"
	"errors"
)

// ErrObjectNotFound is returned by Get when no object exists under the key.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStore is a flat keyed blob store. Put fully replaces any prior
// content under the key.
type ObjectStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, content []byte) error
}
