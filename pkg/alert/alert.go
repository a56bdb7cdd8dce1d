package alert

import (
	"context"
	"errors"
	"fmt"
)

// Notification is the data sent to alert destinations when a watched
// ticker's sentiment crosses a threshold.
type Notification struct {
	Ticker    string  `json:"ticker"`
	Label     string  `json:"label"`
	Score     float64 `json:"score"`
	Direction string  `json:"direction"` // "bullish" or "bearish"
	Source    string  `json:"source,omitempty"`
}

// Title renders a short human-readable headline.
func (n *Notification) Title() string {
	return fmt.Sprintf("%s sentiment is %s", n.Ticker, n.Direction)
}

// Body renders the notification details.
func (n *Notification) Body() string {
	return fmt.Sprintf("Average score %.1f for week of %s", n.Score, n.Label)
}

// Notifier delivers alerts to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Manager broadcasts notifications to all registered notifiers.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new alert manager.
func NewManager(notifiers []Notifier) *Manager {
	return &Manager{notifiers: notifiers}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return len(m.notifiers) > 0
}

// Broadcast sends a notification to all registered notifiers.
func (m *Manager) Broadcast(ctx context.Context, n *Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
		}
	}
	return errors.Join(errs...)
}
