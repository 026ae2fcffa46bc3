package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"cashcast/internal/core"
)

// PredictionRefreshMessage asks the worker to recompute and cache the
// predictions of one user. An empty Month means the month after the one
// current when the worker handles it.
type PredictionRefreshMessage struct {
	UserID      int64     `json:"userId"`
	Month       string    `json:"month,omitempty"`
	RequestedAt time.Time `json:"requestedAt"`
}

// NewPredictionRefreshMessage creates a refresh request stamped with now.
func NewPredictionRefreshMessage(userID int64, month core.Period, now time.Time) *PredictionRefreshMessage {
	msg := &PredictionRefreshMessage{
		UserID:      userID,
		RequestedAt: now.UTC(),
	}
	if !month.IsZero() {
		msg.Month = month.String()
	}
	return msg
}

// Period parses Month; the zero period is returned when Month is empty.
func (m *PredictionRefreshMessage) Period() (core.Period, error) {
	if m.Month == "" {
		return core.Period{}, nil
	}
	return core.ParsePeriod(m.Month)
}

// Validate rejects messages the worker cannot act on.
func (m *PredictionRefreshMessage) Validate() error {
	if m.UserID <= 0 {
		return fmt.Errorf("invalid user id %d", m.UserID)
	}
	if _, err := m.Period(); err != nil {
		return fmt.Errorf("invalid month %q: %w", m.Month, err)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *PredictionRefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PredictionRefreshMessageFromJSON decodes and validates a message body.
func PredictionRefreshMessageFromJSON(data []byte) (*PredictionRefreshMessage, error) {
	var msg PredictionRefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
