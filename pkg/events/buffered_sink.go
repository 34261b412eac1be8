package events

import (
	"sync"

	"github.com/gammazero/deque"
	"go.uber.org/zap"
)

// BufferedSink decouples the matching path from slow consumers. Publish
// enqueues and returns; a single drain goroutine delivers to the handler.
// When the buffer is full the event is dropped with a warning — back-pressure
// must never reach the book.
type BufferedSink struct {
	mu     sync.Mutex
	queue  deque.Deque[*Event]
	limit  int
	notify chan struct{}
	stopCh chan struct{}
	wg     sync.WaitGroup

	handler func(*Event)
	log     *zap.Logger

	dropped int64
}

func NewBufferedSink(limit int, handler func(*Event), log *zap.Logger) *BufferedSink {
	if limit <= 0 {
		limit = 4096
	}
	s := &BufferedSink{
		limit:   limit,
		notify:  make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
		handler: handler,
		log:     log,
	}
	s.wg.Add(1)
	go s.drain()
	return s
}

func (s *BufferedSink) Publish(ev *Event) {
	s.mu.Lock()
	if s.queue.Len() >= s.limit {
		s.dropped++
		dropped := s.dropped
		s.mu.Unlock()
		s.log.Warn("event sink buffer full, dropping event",
			zap.String("type", string(ev.Type)),
			zap.String("instrument", ev.Instrument),
			zap.Int64("dropped_total", dropped))
		return
	}
	s.queue.PushBack(ev)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *BufferedSink) drain() {
	defer s.wg.Done()
	for {
		select {
		case <-s.notify:
			for {
				s.mu.Lock()
				if s.queue.Len() == 0 {
					s.mu.Unlock()
					break
				}
				ev := s.queue.PopFront()
				s.mu.Unlock()
				s.handler(ev)
			}
		case <-s.stopCh:
			// deliver what is left before exiting
			s.mu.Lock()
			for s.queue.Len() > 0 {
				ev := s.queue.PopFront()
				s.mu.Unlock()
				s.handler(ev)
				s.mu.Lock()
			}
			s.mu.Unlock()
			return
		}
	}
}

// Dropped reports how many events were discarded because the buffer was full.
func (s *BufferedSink) Dropped() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *BufferedSink) Close() {
	close(s.stopCh)
	s.wg.Wait()
}
