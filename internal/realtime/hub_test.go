package realtime

import (
	"context"
	"testing"
	"time"
)

func TestLocalHubFanOut(t *testing.T) {
	hub := newLocalHub()

	var first, second []Change
	if _, err := hub.Subscribe(KindOrders, func(c Change) { first = append(first, c) }); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if _, err := hub.Subscribe(KindOrders, func(c Change) { second = append(second, c) }); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	change := Change{Kind: KindOrders, ID: 1, Action: "settled", At: time.Now()}
	hub.Publish(context.Background(), change)

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("deliveries = %d/%d, want 1/1", len(first), len(second))
	}
	if first[0].ID != 1 || first[0].Action != "settled" {
		t.Errorf("delivered change = %+v", first[0])
	}
}

func TestLocalHubKindIsolation(t *testing.T) {
	hub := newLocalHub()

	var got []Change
	if _, err := hub.Subscribe(KindRegisters, func(c Change) { got = append(got, c) }); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	hub.Publish(context.Background(), Change{Kind: KindOrders, ID: 1})
	if len(got) != 0 {
		t.Errorf("received %d changes for another kind", len(got))
	}
}

func TestLocalHubUnsubscribe(t *testing.T) {
	hub := newLocalHub()

	var got []Change
	unsubscribe, err := hub.Subscribe(KindOrders, func(c Change) { got = append(got, c) })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	hub.Publish(context.Background(), Change{Kind: KindOrders, ID: 1})
	unsubscribe()
	hub.Publish(context.Background(), Change{Kind: KindOrders, ID: 2})

	if len(got) != 1 {
		t.Fatalf("deliveries = %d, want 1", len(got))
	}
}
