package bus

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/vflow-labs/vflow/engine"
)

func storeEvent(inv string, seq uint64, kind engine.EventKind) engine.Event {
	return engine.Event{
		Kind:         kind,
		InvocationID: inv,
		ScriptID:     "s1",
		NodeID:       "n1",
		NodeType:     "log",
		Time:         time.Now().UTC(),
		Seq:          seq,
		Message:      "hello",
	}
}

// testStores runs the same conformance checks against every EventStore
// implementation.
func testStore(t *testing.T, store EventStore) {
	t.Helper()
	ctx := context.Background()

	for seq := uint64(1); seq <= 3; seq++ {
		if err := store.Append(ctx, storeEvent("inv-a", seq, engine.EventNodeStarted)); err != nil {
			t.Fatalf("Append(seq=%d) = %v", seq, err)
		}
	}
	if err := store.Append(ctx, storeEvent("inv-b", 1, engine.EventLog)); err != nil {
		t.Fatalf("Append(inv-b) = %v", err)
	}

	events, err := store.List(ctx, "inv-a", 0, 0)
	if err != nil {
		t.Fatalf("List() = %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("List() returned %d events, want 3", len(events))
	}
	if events[0].Seq != 1 || events[2].Seq != 3 {
		t.Errorf("List() order = [%d..%d], want [1..3]", events[0].Seq, events[2].Seq)
	}
	if events[0].Message != "hello" || events[0].ScriptID != "s1" {
		t.Errorf("round-trip lost fields: %+v", events[0])
	}

	after, err := store.List(ctx, "inv-a", 1, 0)
	if err != nil {
		t.Fatalf("List(afterSeq=1) = %v", err)
	}
	if len(after) != 2 || after[0].Seq != 2 {
		t.Errorf("List(afterSeq=1) = %d events starting at %d, want 2 starting at 2", len(after), after[0].Seq)
	}

	limited, err := store.List(ctx, "inv-a", 0, 1)
	if err != nil {
		t.Fatalf("List(limit=1) = %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("List(limit=1) = %d events, want 1", len(limited))
	}

	seq, err := store.LatestSeq(ctx, "inv-a")
	if err != nil || seq != 3 {
		t.Errorf("LatestSeq(inv-a) = %d, %v, want 3", seq, err)
	}
	seq, err = store.LatestSeq(ctx, "inv-none")
	if err != nil || seq != 0 {
		t.Errorf("LatestSeq(inv-none) = %d, %v, want 0", seq, err)
	}
}

func TestMemEventStore(t *testing.T) {
	testStore(t, NewMemEventStore())
}

func TestSQLiteEventStore(t *testing.T) {
	store, err := NewSQLiteEventStore(SQLiteStoreConfig{
		DSN: filepath.Join(t.TempDir(), "events.db"),
	})
	if err != nil {
		t.Fatalf("NewSQLiteEventStore() = %v", err)
	}
	defer store.Close()

	testStore(t, store)

	ids, err := store.InvocationIDs(context.Background())
	if err != nil {
		t.Fatalf("InvocationIDs() = %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("InvocationIDs() = %v, want 2 ids", ids)
	}
}

func TestSQLiteEventStorePruneByCount(t *testing.T) {
	store, err := NewSQLiteEventStore(SQLiteStoreConfig{
		DSN:            filepath.Join(t.TempDir(), "events.db"),
		RetentionCount: 2,
		PruneInterval:  time.Hour,
	})
	if err != nil {
		t.Fatalf("NewSQLiteEventStore() = %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	for seq := uint64(1); seq <= 5; seq++ {
		if err := store.Append(ctx, storeEvent("inv-a", seq, engine.EventNodeStarted)); err != nil {
			t.Fatalf("Append(seq=%d) = %v", seq, err)
		}
	}
	if err := store.Prune(ctx); err != nil {
		t.Fatalf("Prune() = %v", err)
	}

	events, err := store.List(ctx, "inv-a", 0, 0)
	if err != nil {
		t.Fatalf("List() = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("after prune: %d events, want 2", len(events))
	}
	if events[0].Seq != 4 || events[1].Seq != 5 {
		t.Errorf("after prune kept seqs %d, %d, want 4, 5", events[0].Seq, events[1].Seq)
	}
}

func TestStoreSubscriberPersistsEvents(t *testing.T) {
	store := NewMemEventStore()
	sub := NewStoreSubscriber(store, nil)

	sub.Publish(storeEvent("inv-a", 1, engine.EventInvocationStarted))
	sub.Publish(storeEvent("inv-a", 2, engine.EventInvocationFinished))

	events, err := store.List(context.Background(), "inv-a", 0, 0)
	if err != nil || len(events) != 2 {
		t.Fatalf("List() = %d events, %v, want 2", len(events), err)
	}
}

func TestFanoutPublishesToAll(t *testing.T) {
	a := NewMemEventStore()
	b := NewMemEventStore()
	f := Fanout{NewStoreSubscriber(a, nil), nil, NewStoreSubscriber(b, nil)}

	f.Publish(storeEvent("inv-a", 1, engine.EventLog))

	for name, store := range map[string]*MemEventStore{"a": a, "b": b} {
		events, _ := store.List(context.Background(), "inv-a", 0, 0)
		if len(events) != 1 {
			t.Errorf("store %s received %d events, want 1", name, len(events))
		}
	}
}
