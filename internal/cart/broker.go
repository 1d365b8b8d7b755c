package cart

import (
	"context"
	"sync"
)

// Broker fans cart events out to subscribers in this process. It backs the in-memory setup;
// deployments with several instances publish through Redis instead.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan string]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[chan string]struct{})}
}

// Publish never blocks; a subscriber that is not keeping up misses the event.
func (b *Broker) Publish(_ context.Context, userID, event string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[userID] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (b *Broker) Subscribe(_ context.Context, userID string) (<-chan string, func(), error) {
	ch := make(chan string, 8)

	b.mu.Lock()
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[chan string]struct{})
	}
	b.subs[userID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[userID], ch)
			if len(b.subs[userID]) == 0 {
				delete(b.subs, userID)
			}
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, stop, nil
}
