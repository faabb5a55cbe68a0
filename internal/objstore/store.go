package objstore

import "context"

// Store resolves opaque file handles to the uploaded bytes. Handles are
// assigned on Put and treated as opaque by everything downstream.
type Store interface {
	Put(ctx context.Context, name string, data []byte) (handle string, err error)
	Get(ctx context.Context, handle string) ([]byte, error)
}
