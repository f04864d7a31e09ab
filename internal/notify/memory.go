package notify

import (
	"context"
	"sync"
)

// Memory stores notifications for inspection in tests.
type Memory struct {
	mu       sync.RWMutex
	messages []Message
}

// NewMemory returns an empty Memory notifier.
func NewMemory() *Memory {
	return &Memory{}
}

// Notify records the message.
func (m *Memory) Notify(_ context.Context, source, text string) error {
	msg := Message{Source: source, Text: text}
	if err := msg.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

// Messages returns the recorded notifications.
func (m *Memory) Messages() []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Message, len(m.messages))
	copy(out, m.messages)
	return out
}
