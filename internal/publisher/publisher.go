// Package publisher emits conversion-completed events. Publishing is
// best-effort and never fails the originating request.
package publisher

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Event describes one completed conversion.
type Event struct {
	Source        string    `json:"source"`
	Title         string    `json:"title"`
	CorrelationID string    `json:"correlation_id"`
	ContentBytes  int       `json:"content_bytes"`
	CompletedAt   time.Time `json:"completed_at"`
}

// Publisher sends events to a topic and returns a message id.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Memory stores published payloads for inspection in tests and dev mode.
type Memory struct {
	mu       sync.RWMutex
	messages []PublishedMessage
}

// PublishedMessage captures one publish call.
type PublishedMessage struct {
	Topic   string
	Payload any
}

// NewMemory returns a memory Publisher.
func NewMemory() *Memory {
	return &Memory{}
}

// Publish records the message and returns a pseudo ID.
func (p *Memory) Publish(_ context.Context, topic string, payload any) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, PublishedMessage{Topic: topic, Payload: payload})
	return fmt.Sprintf("memory-%d", len(p.messages)), nil
}

// Messages returns the recorded publishes.
func (p *Memory) Messages() []PublishedMessage {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]PublishedMessage, len(p.messages))
	copy(out, p.messages)
	return out
}
