package testsupport

import (
	"context"
	"testing"

	"tolk/internal/config"
	"tolk/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// Enqueue adds chunks to the store without a batch and returns their ids.
func Enqueue(t testing.TB, store *queue.Store, texts ...string) []int64 {
	t.Helper()

	ids, err := store.Enqueue(context.Background(), "", texts)
	if err != nil {
		t.Fatalf("store.Enqueue: %v", err)
	}
	return ids
}
