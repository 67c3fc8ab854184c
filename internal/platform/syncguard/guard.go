package syncguard

import "sync"

// Guard is a keyed in-flight marker. TryAcquire is an atomic check-and-set so
// two concurrent syncs for one user can never both proceed.
type Guard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func New() *Guard {
	return &Guard{inFlight: make(map[string]struct{})}
}

func (g *Guard) TryAcquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.inFlight[key]; busy {
		return false
	}
	g.inFlight[key] = struct{}{}
	return true
}

func (g *Guard) Release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, key)
}
