package redis

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/memas-labs/memas-core/internal/core/domain"
	"github.com/memas-labs/memas-core/internal/core/ports/driven"
	"github.com/redis/go-redis/v9"
)

// Verify interface compliance
var _ driven.NameIndex = (*NameIndex)(nil)

const namePrefix = "memas:name:"

// NameIndex implements the global pathname-to-id mapping on Redis.
// SETNX carries the create-if-absent semantics, and a Lua script provides
// the guarded delete, so every operation stays atomic across processes.
type NameIndex struct {
	client *redis.Client
}

// NewNameIndex creates a new Redis-backed name index.
func NewNameIndex(client *redis.Client) *NameIndex {
	return &NameIndex{client: client}
}

// PutIfAbsent atomically inserts pathname -> id only if no entry exists.
// Returns true if this call created the entry, false if it lost the race.
func (n *NameIndex) PutIfAbsent(ctx context.Context, pathname string, id uuid.UUID) (bool, error) {
	key := namePrefix + pathname
	created, err := n.client.SetNX(ctx, key, id.String(), 0).Result()
	if err != nil {
		return false, fmt.Errorf("put name %s: %w", pathname, err)
	}
	return created, nil
}

// Lookup resolves a pathname to its id.
func (n *NameIndex) Lookup(ctx context.Context, pathname string) (uuid.UUID, error) {
	key := namePrefix + pathname
	value, err := n.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return uuid.Nil, &domain.NamespaceNotFoundError{Pathname: pathname}
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("lookup name %s: %w", pathname, err)
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("corrupt name entry %s: %w", pathname, err)
	}
	return id, nil
}

// compareAndDeleteScript deletes the entry only when it still maps to the
// expected id, so two racing deletes (or a delete racing a recreate under
// the same pathname) cannot remove the wrong entry.
var compareAndDeleteScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// CompareAndDelete removes the entry only if it currently maps to id.
// Returns true if this call removed the entry.
func (n *NameIndex) CompareAndDelete(ctx context.Context, pathname string, id uuid.UUID) (bool, error) {
	key := namePrefix + pathname
	result, err := compareAndDeleteScript.Run(ctx, n.client, []string{key}, id.String()).Result()
	if err != nil && err != redis.Nil {
		return false, fmt.Errorf("delete name %s: %w", pathname, err)
	}
	count, _ := result.(int64)
	return count == 1, nil
}

// Ping checks if the Redis backend is healthy.
func (n *NameIndex) Ping(ctx context.Context) error {
	return n.client.Ping(ctx).Err()
}
