// Package notify delivers operator notifications. Delivery is fire-and-forget:
// callers log a failed Notify and carry on.
package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Message is the payload shared by every notifier.
type Message struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// Validate rejects messages without text.
func (m Message) Validate() error {
	if strings.TrimSpace(m.Text) == "" {
		return fmt.Errorf("notification text is required")
	}
	return nil
}

// Log writes notifications to a zap logger at warn level.
type Log struct {
	logger *zap.Logger
}

// NewLog returns a notifier that only logs.
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger.Named("notify")}
}

// Notify logs the message.
func (l *Log) Notify(_ context.Context, source, text string) error {
	msg := Message{Source: source, Text: text}
	if err := msg.Validate(); err != nil {
		return err
	}
	l.logger.Warn("operator notification", zap.String("source", source), zap.String("text", text))
	return nil
}

// Nop drops every notification.
type Nop struct{}

// Notify does nothing.
func (Nop) Notify(context.Context, string, string) error { return nil }
