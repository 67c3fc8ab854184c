package messaging

import (
	"context"
	"sync"
	"testing"
	"time"

	"adboost/internal/shared/events"
)

func TestBusDeliversToTopicSubscribers(t *testing.T) {
	bus := NewBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan events.Envelope, 1)
	err := bus.Subscribe(ctx, events.TypeTaskFailed, func(_ context.Context, event events.Envelope) error {
		received <- event
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	event, err := events.New("evt-1", events.TypeTaskFailed, "user-1", time.Now(), map[string]string{"task_id": "t-1"})
	if err != nil {
		t.Fatalf("build event: %v", err)
	}
	if err := bus.Publish(ctx, events.TypeTaskFailed, event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case got := <-received:
		if got.EventID != "evt-1" || got.EventType != events.TypeTaskFailed {
			t.Fatalf("unexpected event %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("event never delivered")
	}
}

func TestBusIgnoresOtherTopics(t *testing.T) {
	bus := NewBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	delivered := 0
	err := bus.Subscribe(ctx, events.TypeAccountDisabled, func(context.Context, events.Envelope) error {
		mu.Lock()
		delivered++
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	event, err := events.New("evt-1", events.TypeTaskSucceeded, "user-1", time.Now(), nil)
	if err != nil {
		t.Fatalf("build event: %v", err)
	}
	if err := bus.Publish(ctx, events.TypeTaskSucceeded, event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if delivered != 0 {
		t.Fatalf("expected no cross-topic delivery, got %d", delivered)
	}
}

func TestBusPublishWithoutSubscribersIsNoop(t *testing.T) {
	bus := NewBus(nil)

	event, err := events.New("evt-1", events.TypeTaskAdmitted, "user-1", time.Now(), nil)
	if err != nil {
		t.Fatalf("build event: %v", err)
	}
	if err := bus.Publish(context.Background(), events.TypeTaskAdmitted, event); err != nil {
		t.Fatalf("publish: %v", err)
	}
}
