package review

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"
)

// TimerScheduler fires tickets from in-process timers. Each document has
// at most one pending task; scheduling again replaces it.
type TimerScheduler struct {
	mu      sync.Mutex
	handle  func(Ticket)
	timers  map[string]*time.Timer
	stopped bool
}

func NewTimerScheduler(handle func(Ticket)) *TimerScheduler {
	return &TimerScheduler{handle: handle, timers: make(map[string]*time.Timer)}
}

func (s *TimerScheduler) Schedule(t Ticket, delay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return fmt.Errorf("scheduler stopped")
	}
	key := t.key()
	if prev, ok := s.timers[key]; ok {
		prev.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.timers[key] != timer {
			s.mu.Unlock()
			return
		}
		delete(s.timers, key)
		s.mu.Unlock()
		s.handle(t)
	})
	s.timers[key] = timer
	return nil
}

// Pending reports how many tasks are waiting.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every pending task. Later Schedule calls fail.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, timer := range s.timers {
		timer.Stop()
		delete(s.timers, key)
	}
	s.stopped = true
}

// Publisher is satisfied by the RabbitMQ client.
type Publisher interface {
	Publish(message []byte, delaySeconds int) error
}

// QueueScheduler hands tickets to a delayed-message exchange; a consumer
// passes them back to Engine.Fire.
type QueueScheduler struct {
	pub Publisher
}

func NewQueueScheduler(pub Publisher) *QueueScheduler {
	return &QueueScheduler{pub: pub}
}

func (s *QueueScheduler) Schedule(t Ticket, delay time.Duration) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal review ticket: %w", err)
	}
	seconds := int(math.Ceil(delay.Seconds()))
	if err := s.pub.Publish(payload, seconds); err != nil {
		return fmt.Errorf("failed to publish review ticket: %w", err)
	}
	return nil
}

// DecodeTicket parses a ticket published by QueueScheduler.
func DecodeTicket(body []byte) (Ticket, error) {
	var t Ticket
	if err := json.Unmarshal(body, &t); err != nil {
		return Ticket{}, fmt.Errorf("failed to unmarshal review ticket: %w", err)
	}
	if t.EventID == "" || t.DocumentID == "" {
		return Ticket{}, fmt.Errorf("review ticket is missing event or document id")
	}
	return t, nil
}
