package audit

import (
	"context"
	"sync"
	"time"
)

// Publisher records audit events. Implementations must be safe for
// concurrent use. Emit failures are logged by callers but never fail the
// underlying mutation, which has already committed.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// MemoryPublisher buffers events in memory for tests and single-process
// deployments without a broker.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Emit(_ context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a snapshot of everything emitted so far.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}
