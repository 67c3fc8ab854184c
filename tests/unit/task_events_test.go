package unit

import (
	"context"
	"errors"
	"sync"
	"testing"

	accountservice "adboost/contexts/ad-delivery/account-service"
	accountentities "adboost/contexts/ad-delivery/account-service/domain/entities"
	taskmemory "adboost/contexts/ad-delivery/task-service/adapters/memory"
	taskworkers "adboost/contexts/ad-delivery/task-service/application/workers"
	taskentities "adboost/contexts/ad-delivery/task-service/domain/entities"
	taskports "adboost/contexts/ad-delivery/task-service/ports"
	"adboost/internal/shared/events"
)

type recordingPublisher struct {
	mu        sync.Mutex
	envelopes []events.Envelope
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event events.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.envelopes = append(p.envelopes, event)
	return nil
}

func (p *recordingPublisher) all() []events.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Envelope(nil), p.envelopes...)
}

func TestLifecycleEventsMintFreshEventIDs(t *testing.T) {
	failing := seededTask("t-1", "user-1", "acct-1", 100, taskentities.TaskStatusWait)
	failing.MaxRetry = 1
	succeeding := seededTask("t-2", "user-1", "acct-1", 100, taskentities.TaskStatusWait)

	platform := &fakePlatform{}
	platform.CreateOrderFn = func(in taskports.CreateOrderInput) (taskports.CreateOrderResult, error) {
		if in.ItemID == "item-t-1" {
			return taskports.CreateOrderResult{}, errors.New("order create rejected")
		}
		return taskports.CreateOrderResult{OrderID: "order-2", ExpectedExposure: 1000}, nil
	}

	accountModule := accountservice.NewInMemoryModule(
		[]accountentities.Account{activeAccount("acct-1", "user-1")},
		plainCodec{},
		platform,
		discardLogger(),
	)

	store := taskmemory.NewStore([]taskentities.Task{failing, succeeding})
	publisher := &recordingPublisher{}
	executor := taskworkers.Executor{
		Tasks:    store,
		Accounts: accountModule.Directory,
		Codec:    plainCodec{},
		Platform: platform,
		Events:   publisher,
		Clock:    taskmemory.SystemClock{},
		IDGen:    taskmemory.UUIDGenerator{},
		Logger:   discardLogger(),
	}

	if err := executor.RunOnce(context.Background()); err != nil {
		t.Fatalf("executor tick failed: %v", err)
	}

	published := publisher.all()
	if len(published) != 2 {
		t.Fatalf("expected one failed and one succeeded event, got %d", len(published))
	}

	seen := make(map[string]bool)
	for _, envelope := range published {
		if envelope.EventID == "" {
			t.Fatalf("expected a minted event id, got empty for %s", envelope.EventType)
		}
		if envelope.EventID == "t-1" || envelope.EventID == "t-2" {
			t.Fatalf("event id must not reuse the task id, got %q", envelope.EventID)
		}
		if seen[envelope.EventID] {
			t.Fatalf("event id %q reused across events", envelope.EventID)
		}
		seen[envelope.EventID] = true
		if envelope.PartitionKey != "user-1" {
			t.Fatalf("expected user partition key, got %q", envelope.PartitionKey)
		}
	}
}
