package bus

import (
	"testing"

	"github.com/vflow-labs/vflow/engine"
)

func TestMemBusRoutesByInvocation(t *testing.T) {
	b := NewMemBus(MemBusConfig{})
	defer b.Close()

	subA := b.Subscribe("inv-a")
	subAll := b.SubscribeAll()

	b.Publish(engine.Event{Kind: engine.EventNodeStarted, InvocationID: "inv-a", Seq: 1})
	b.Publish(engine.Event{Kind: engine.EventNodeStarted, InvocationID: "inv-b", Seq: 1})

	got := <-subA.Events()
	if got.InvocationID != "inv-a" {
		t.Errorf("subA received invocation %q, want inv-a", got.InvocationID)
	}
	select {
	case extra := <-subA.Events():
		t.Errorf("subA received unexpected event for %q", extra.InvocationID)
	default:
	}

	first := <-subAll.Events()
	second := <-subAll.Events()
	if first.InvocationID != "inv-a" || second.InvocationID != "inv-b" {
		t.Errorf("subAll received %q, %q, want inv-a, inv-b", first.InvocationID, second.InvocationID)
	}
}

func TestMemBusCloseStopsDelivery(t *testing.T) {
	b := NewMemBus(MemBusConfig{})
	sub := b.SubscribeAll()

	if err := b.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	// Publish after close is a no-op.
	b.Publish(engine.Event{InvocationID: "inv-a"})

	if _, open := <-sub.Events(); open {
		t.Error("subscription channel still open after bus close")
	}
}

func TestMemBusDropsWhenSubscriberFull(t *testing.T) {
	b := NewMemBus(MemBusConfig{SubscriberBufferSize: 1})
	defer b.Close()
	sub := b.Subscribe("inv-a")

	b.Publish(engine.Event{InvocationID: "inv-a", Seq: 1})
	b.Publish(engine.Event{InvocationID: "inv-a", Seq: 2})

	got := <-sub.Events()
	if got.Seq != 1 {
		t.Errorf("first buffered event Seq = %d, want 1", got.Seq)
	}
	select {
	case extra := <-sub.Events():
		t.Errorf("overflow event Seq = %d was not dropped", extra.Seq)
	default:
	}
}

func TestMemBusSubscriptionCloseIsIdempotent(t *testing.T) {
	b := NewMemBus(MemBusConfig{})
	defer b.Close()
	sub := b.Subscribe("inv-a")

	if err := sub.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("second Close() = %v", err)
	}
	// Publishing to a closed subscription must not panic.
	b.Publish(engine.Event{InvocationID: "inv-a"})
}
