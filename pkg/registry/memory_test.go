package registry

import (
	"MayaCRM/internal/entity"
	"context"
	"testing"
	"time"
)

func newTestStore(t *testing.T) Store {
	t.Helper()

	store, err := NewStore(StoreTypeMemory)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestMemoryStoreSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	session := &entity.Session{
		ID:     "sess-1",
		UserID: "tenant-1",
		Status: entity.SessionStatusActive,
	}

	if err := store.PutSession(ctx, session); err != nil {
		t.Fatalf("PutSession: %v", err)
	}

	got, err := store.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got == nil || got.ID != "sess-1" {
		t.Fatalf("GetSession returned %+v", got)
	}

	// Mutating the returned copy must not leak into the store.
	got.Status = entity.SessionStatusEnded
	again, _ := store.GetSession(ctx, "sess-1")
	if again.Status != entity.SessionStatusActive {
		t.Errorf("store state mutated through returned copy")
	}

	missing, err := store.GetSession(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("GetSession on absent id = (%v, %v), want (nil, nil)", missing, err)
	}

	if err := store.RemoveSession(ctx, "sess-1"); err != nil {
		t.Fatalf("RemoveSession: %v", err)
	}
	gone, _ := store.GetSession(ctx, "sess-1")
	if gone != nil {
		t.Errorf("session survived removal")
	}
}

func TestMemoryStoreListByTenant(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	store.PutSession(ctx, &entity.Session{ID: "a", UserID: "t1"})
	store.PutSession(ctx, &entity.Session{ID: "b", UserID: "t1"})
	store.PutSession(ctx, &entity.Session{ID: "c", UserID: "t2"})

	t1, err := store.ListSessions(ctx, "t1")
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(t1) != 2 {
		t.Errorf("ListSessions(t1) = %d sessions, want 2", len(t1))
	}

	all, err := store.AllSessions(ctx)
	if err != nil {
		t.Fatalf("AllSessions: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("AllSessions = %d sessions, want 3", len(all))
	}
}

func TestMemoryStoreQueueOrdering(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	now := time.Now()
	future := now.Add(time.Hour)

	store.PutSession(ctx, &entity.Session{ID: "s", UserID: "t"})

	store.Enqueue(ctx, "s", entity.Command{ID: "1", Type: entity.CommandCreateTask})
	store.Enqueue(ctx, "s", entity.Command{ID: "2", Type: entity.CommandScheduleCallback, ScheduledAt: &future})
	store.Enqueue(ctx, "s", entity.Command{ID: "3", Type: entity.CommandCreateTask})

	count, _ := store.QueuedCount(ctx, "s")
	if count != 3 {
		t.Fatalf("QueuedCount = %d, want 3", count)
	}

	due, err := store.DequeueDue(ctx, "s", now)
	if err != nil {
		t.Fatalf("DequeueDue: %v", err)
	}
	if len(due) != 2 || due[0].ID != "1" || due[1].ID != "3" {
		t.Fatalf("DequeueDue = %+v, want commands 1 and 3 in order", due)
	}

	// Future-scheduled command stays queued and is not consumed twice.
	remaining, _ := store.QueuedCount(ctx, "s")
	if remaining != 1 {
		t.Errorf("QueuedCount after drain = %d, want 1", remaining)
	}

	again, _ := store.DequeueDue(ctx, "s", now)
	if len(again) != 0 {
		t.Errorf("second drain returned %d commands, want 0", len(again))
	}

	later, _ := store.DequeueDue(ctx, "s", future.Add(time.Second))
	if len(later) != 1 || later[0].ID != "2" {
		t.Errorf("drain past schedule = %+v, want command 2", later)
	}
}

func TestNewStoreValidation(t *testing.T) {
	if _, err := NewStore(StoreType("bogus")); err == nil {
		t.Error("expected error for unknown store type")
	}

	if _, err := NewStore(StoreTypeRedis); err == nil {
		t.Error("expected error for redis store without client")
	}
}
