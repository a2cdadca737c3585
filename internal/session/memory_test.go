package session

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

type visit struct {
	Stage string
	HP    int
}

func TestMemoryStore_PutReplacesVisit(t *testing.T) {
	store := NewMemoryStore[visit]()
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "nobody"); err != nil || ok {
		t.Fatalf("Get on empty store: ok=%v err=%v", ok, err)
	}

	steps := []visit{
		{Stage: "door", HP: 60},
		{Stage: "combat", HP: 42},
		{Stage: "loot", HP: -3},
	}
	for _, want := range steps {
		if err := store.Put(ctx, "visitor", want); err != nil {
			t.Fatalf("Put %s: %v", want.Stage, err)
		}
		got, ok, err := store.Get(ctx, "visitor")
		if err != nil || !ok {
			t.Fatalf("Get after %s: ok=%v err=%v", want.Stage, ok, err)
		}
		if got != want {
			t.Errorf("Expected %+v, got %+v", want, got)
		}
	}
	if store.Len() != 1 {
		t.Errorf("Expected a single session, got %d", store.Len())
	}
}

func TestMemoryStore_NewIDIsHexAndUnique(t *testing.T) {
	store := NewMemoryStore[visit]()
	seen := map[string]struct{}{}
	for range 200 {
		id := store.NewID()
		if len(id) != 32 {
			t.Fatalf("Expected 32 characters, got %q", id)
		}
		for _, c := range id {
			if !strings.ContainsRune("0123456789abcdef", c) {
				t.Fatalf("Expected lowercase hex, got %q", id)
			}
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("Duplicate ID %s", id)
		}
		seen[id] = struct{}{}
	}
}

func TestMemoryStore_ParallelVisitors(t *testing.T) {
	store := NewMemoryStore[int]()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := store.NewID()
			if err := store.Put(ctx, id, i); err != nil {
				t.Errorf("Put: %v", err)
			}
			if got, ok, _ := store.Get(ctx, id); !ok || got != i {
				t.Errorf("Expected %d back, got %d (ok=%v)", i, got, ok)
			}
		}()
	}
	wg.Wait()

	if store.Len() != 20 {
		t.Errorf("Expected 20 sessions, got %d", store.Len())
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore[visit]()
	ctx := context.Background()

	if err := store.Put(ctx, "a", visit{Stage: "loot"}); err != nil {
		t.Fatalf("Unexpected error on Put: %v", err)
	}
	if err := store.Delete(ctx, "a"); err != nil {
		t.Fatalf("Unexpected error on Delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "a"); ok {
		t.Error("Expected value to be gone after Delete")
	}
	// Deleting a missing id is not an error.
	if err := store.Delete(ctx, "a"); err != nil {
		t.Errorf("Unexpected error deleting missing id: %v", err)
	}
}

func TestMemoryStore_Sweep(t *testing.T) {
	store := NewMemoryStore[visit]()
	ctx := context.Background()

	clock := time.Date(2026, 1, 10, 20, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	_ = store.Put(ctx, "old", visit{Stage: "door"})
	clock = clock.Add(2 * time.Hour)
	_ = store.Put(ctx, "fresh", visit{Stage: "combat"})

	if n := store.Sweep(time.Hour); n != 1 {
		t.Errorf("Expected 1 swept session, got %d", n)
	}
	if _, ok, _ := store.Get(ctx, "old"); ok {
		t.Error("Expected idle session to be swept")
	}
	if _, ok, _ := store.Get(ctx, "fresh"); !ok {
		t.Error("Expected recent session to survive")
	}
	if store.Len() != 1 {
		t.Errorf("Expected 1 live session, got %d", store.Len())
	}
}

func TestMemoryStore_GetKeepsSessionAlive(t *testing.T) {
	store := NewMemoryStore[visit]()
	ctx := context.Background()

	clock := time.Date(2026, 1, 10, 20, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	_ = store.Put(ctx, "reader", visit{Stage: "unlocked"})
	_ = store.Put(ctx, "idle", visit{Stage: "door"})

	// The reader only reloads pages; nothing writes to the session.
	for range 3 {
		clock = clock.Add(40 * time.Minute)
		if _, ok, _ := store.Get(ctx, "reader"); !ok {
			t.Fatal("Expected reader session to exist")
		}
	}

	if n := store.Sweep(time.Hour); n != 1 {
		t.Errorf("Expected only the idle session swept, got %d", n)
	}
	if got, ok, _ := store.Get(ctx, "reader"); !ok || got.Stage != "unlocked" {
		t.Errorf("Expected reader to keep its session, got %+v (ok=%v)", got, ok)
	}
}

func TestMemoryStore_RunSweeperStops(t *testing.T) {
	store := NewMemoryStore[visit]()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- store.RunSweeper(ctx, time.Millisecond, time.Hour, nil)
	}()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Unexpected error from sweeper: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Sweeper did not stop after cancel")
	}
}
