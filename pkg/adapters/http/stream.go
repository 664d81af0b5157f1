package http

import (
	"log/slog"
	"sync"

	"github.com/aretw0/vanity/internal/logging"
)

// Event topics served on /events.
const (
	TopicReloads = "reloads"
	TopicTracks  = "tracks"
)

// subscriberBuffer is how many events a slow /events client may lag behind.
const subscriberBuffer = 10

// StreamManager fans registry events out to /events subscribers, per topic.
type StreamManager struct {
	logger *slog.Logger

	mu     sync.RWMutex
	topics map[string]map[chan string]struct{}
}

// NewStreamManager returns an empty manager. A nil logger discards output.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		logger: logger,
		topics: make(map[string]map[chan string]struct{}),
	}
}

// Subscribe registers a subscriber on topic.
// The returned func unsubscribes and closes the channel; calling it again is a no-op.
func (sm *StreamManager) Subscribe(topic string) (<-chan string, func()) {
	ch := make(chan string, subscriberBuffer)

	sm.mu.Lock()
	subs, ok := sm.topics[topic]
	if !ok {
		subs = make(map[chan string]struct{})
		sm.topics[topic] = subs
	}
	subs[ch] = struct{}{}
	sm.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() { sm.unsubscribe(topic, ch) })
	}
}

func (sm *StreamManager) unsubscribe(topic string, ch chan string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	subs := sm.topics[topic]
	delete(subs, ch)
	close(ch)
	if len(subs) == 0 {
		delete(sm.topics, topic)
	}
}

// Subscribers returns the number of subscribers on topic.
func (sm *StreamManager) Subscribers(topic string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.topics[topic])
}

// Broadcast sends msg to every subscriber of topic without blocking and
// returns how many received it. Subscribers with a full buffer miss the event.
func (sm *StreamManager) Broadcast(topic string, msg string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sent := 0
	for ch := range sm.topics[topic] {
		select {
		case ch <- msg:
			sent++
		default:
			sm.logger.Warn("event subscriber lagging, dropping event", "topic", topic)
		}
	}
	return sent
}
