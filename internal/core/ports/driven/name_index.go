package driven

import (
	"context"

	"github.com/google/uuid"
)

// NameIndex is the single global pathname-to-id mapping covering both
// namespaces and corpora. Insertion is the exclusivity gate for name
// creation; removal of the entry is the first step of corpus deletion and
// immediately frees the pathname for reuse.
//
// Implementations must provide the atomic conditional semantics below even
// when callers are separate processes; the core never takes an in-process
// lock around these calls.
type NameIndex interface {
	// PutIfAbsent atomically inserts pathname -> id only if no entry exists.
	// Returns false (and no error) if the insert lost the race.
	PutIfAbsent(ctx context.Context, pathname string, id uuid.UUID) (bool, error)

	// Lookup resolves a pathname to its id.
	// Returns domain.ErrNamespaceNotFound if no entry exists.
	Lookup(ctx context.Context, pathname string) (uuid.UUID, error)

	// CompareAndDelete removes the entry only if it currently maps to id.
	// Returns false (and no error) if the entry is absent or maps elsewhere.
	CompareAndDelete(ctx context.Context, pathname string, id uuid.UUID) (bool, error)

	// Ping checks if the index backend is healthy.
	Ping(ctx context.Context) error
}
