package hub

import (
	"sync"
	"time"
)

// DeliverFunc materializes a scheduled bot message once its delay has
// elapsed.
type DeliverFunc func(target Target, content string)

type pending struct {
	target  Target
	content string
	dueAt   time.Time
}

// Scheduler delays bot-authored messages without blocking the caller.
// Deliveries for one target fire in the order they were scheduled;
// different targets proceed independently. There is no cancellation:
// once scheduled, a delivery fires unless the process exits first.
type Scheduler struct {
	deliver DeliverFunc

	// queues holds the pending deliveries per target key. An entry
	// exists exactly while a drain goroutine is live for that key, so
	// idle targets hold no memory and no goroutine.
	mu     sync.Mutex
	queues map[string][]pending
}

// NewScheduler wires a scheduler to its delivery callback.
func NewScheduler(deliver DeliverFunc) *Scheduler {
	return &Scheduler{
		deliver: deliver,
		queues:  make(map[string][]pending),
	}
}

// Schedule enqueues content for delivery to target after delay. The
// due time is fixed now, so queued deliveries do not stack their
// delays on top of each other. The queue is unbounded; a scheduled
// delivery is never dropped.
func (s *Scheduler) Schedule(target Target, content string, delay time.Duration) {
	key := target.key()
	item := pending{
		target:  target,
		content: content,
		dueAt:   time.Now().Add(delay),
	}

	s.mu.Lock()
	_, active := s.queues[key]
	s.queues[key] = append(s.queues[key], item)
	s.mu.Unlock()

	if !active {
		go s.drain(key)
	}
}

// drain serializes deliveries for one target key. It exits and removes
// the queue entry once no deliveries remain; the next Schedule for the
// key starts a fresh drainer.
func (s *Scheduler) drain(key string) {
	for {
		s.mu.Lock()
		queue := s.queues[key]
		if len(queue) == 0 {
			delete(s.queues, key)
			s.mu.Unlock()
			return
		}
		item := queue[0]
		s.queues[key] = queue[1:]
		s.mu.Unlock()

		if wait := time.Until(item.dueAt); wait > 0 {
			timer := time.NewTimer(wait)
			<-timer.C
		}
		s.deliver(item.target, item.content)
	}
}
