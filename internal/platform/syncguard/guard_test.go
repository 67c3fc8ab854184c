package syncguard

import (
	"sync"
	"testing"
)

func TestGuardSingleWinnerPerKey(t *testing.T) {
	guard := New()

	const contenders = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if guard.TryAcquire("user-1") {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}

func TestGuardKeysAreIndependent(t *testing.T) {
	guard := New()

	if !guard.TryAcquire("user-1") {
		t.Fatalf("first acquire should win")
	}
	if !guard.TryAcquire("user-2") {
		t.Fatalf("other key should be free")
	}
	if guard.TryAcquire("user-1") {
		t.Fatalf("held key should stay busy")
	}
}

func TestGuardReleaseReopensKey(t *testing.T) {
	guard := New()

	if !guard.TryAcquire("user-1") {
		t.Fatalf("first acquire should win")
	}
	guard.Release("user-1")
	if !guard.TryAcquire("user-1") {
		t.Fatalf("released key should be free again")
	}
}
