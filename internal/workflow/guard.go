package workflow

import (
	"context"
	"fmt"
	"sync"
)

// GuardKey identifies one mutable field of one entity.
type GuardKey struct {
	Kind  string
	ID    int64
	Field string
}

func (k GuardKey) String() string { return fmt.Sprintf("%s/%d.%s", k.Kind, k.ID, k.Field) }

// Guard allows at most one in-flight mutation per key. Later callers for the
// same key wait their turn.
type Guard struct {
	mu    sync.Mutex
	slots map[GuardKey]*slot
}

type slot struct {
	sem  chan struct{}
	refs int
}

func NewGuard() *Guard {
	return &Guard{slots: map[GuardKey]*slot{}}
}

// Acquire blocks until k is free or ctx is done. The returned release must
// be called exactly once.
func (g *Guard) Acquire(ctx context.Context, k GuardKey) (func(), error) {
	g.mu.Lock()
	s, ok := g.slots[k]
	if !ok {
		s = &slot{sem: make(chan struct{}, 1)}
		g.slots[k] = s
	}
	s.refs++
	g.mu.Unlock()

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		g.drop(k, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.sem
			g.drop(k, s)
		})
	}, nil
}

func (g *Guard) drop(k GuardKey, s *slot) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(g.slots, k)
	}
}

// InFlight reports how many callers hold or wait for k.
func (g *Guard) InFlight(k GuardKey) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if s, ok := g.slots[k]; ok {
		return s.refs
	}
	return 0
}
