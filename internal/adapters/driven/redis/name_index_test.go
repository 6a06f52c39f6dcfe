package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/memas-labs/memas-core/internal/core/domain"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, func() {
		client.Close()
		mr.Close()
	}
}

func TestNameIndex_PutIfAbsent(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	index := NewNameIndex(client)
	ctx := context.Background()

	first := uuid.New()
	created, err := index.PutIfAbsent(ctx, "acme:kb", first)
	if err != nil {
		t.Fatalf("PutIfAbsent failed: %v", err)
	}
	if !created {
		t.Error("expected first insert to win")
	}

	created, err = index.PutIfAbsent(ctx, "acme:kb", uuid.New())
	if err != nil {
		t.Fatalf("second PutIfAbsent failed: %v", err)
	}
	if created {
		t.Error("expected second insert to lose")
	}

	// The entry still maps to the winner.
	id, err := index.Lookup(ctx, "acme:kb")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if id != first {
		t.Errorf("Lookup = %v, want %v", id, first)
	}
}

func TestNameIndex_Lookup_NotFound(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	index := NewNameIndex(client)
	ctx := context.Background()

	_, err := index.Lookup(ctx, "missing")
	if !errors.Is(err, domain.ErrNamespaceNotFound) {
		t.Errorf("got %v, want ErrNamespaceNotFound", err)
	}
	var nf *domain.NamespaceNotFoundError
	if !errors.As(err, &nf) || nf.Pathname != "missing" {
		t.Errorf("error does not carry pathname: %v", err)
	}
}

func TestNameIndex_CompareAndDelete(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	index := NewNameIndex(client)
	ctx := context.Background()

	id := uuid.New()
	if _, err := index.PutIfAbsent(ctx, "acme:kb", id); err != nil {
		t.Fatalf("PutIfAbsent failed: %v", err)
	}

	// Wrong id leaves the entry alone.
	deleted, err := index.CompareAndDelete(ctx, "acme:kb", uuid.New())
	if err != nil {
		t.Fatalf("CompareAndDelete failed: %v", err)
	}
	if deleted {
		t.Error("delete with wrong id should not succeed")
	}
	if _, err := index.Lookup(ctx, "acme:kb"); err != nil {
		t.Errorf("entry vanished after guarded miss: %v", err)
	}

	// Matching id removes it.
	deleted, err = index.CompareAndDelete(ctx, "acme:kb", id)
	if err != nil {
		t.Fatalf("CompareAndDelete failed: %v", err)
	}
	if !deleted {
		t.Error("delete with matching id should succeed")
	}

	// Second delete reports already gone.
	deleted, err = index.CompareAndDelete(ctx, "acme:kb", id)
	if err != nil {
		t.Fatalf("second CompareAndDelete failed: %v", err)
	}
	if deleted {
		t.Error("second delete should report the entry gone")
	}

	// The pathname is immediately reusable.
	created, err := index.PutIfAbsent(ctx, "acme:kb", uuid.New())
	if err != nil || !created {
		t.Errorf("reuse after delete = (%v, %v), want success", created, err)
	}
}

func TestNameIndex_Ping(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	index := NewNameIndex(client)
	if err := index.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}
