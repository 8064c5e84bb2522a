package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
)

var ErrInvalidMessage = errors.New("invalid change message")

// NewChangeEvent stamps an event with the current time.
func NewChangeEvent(userID, transactionID string, op core.ChangeOp) core.ChangeEvent {
	return core.ChangeEvent{
		UserID:        userID,
		TransactionID: transactionID,
		Op:            op,
		Timestamp:     time.Now().UTC(),
	}
}

// EncodeChange renders an event as a message body.
func EncodeChange(ev core.ChangeEvent) ([]byte, error) {
	if err := validateChange(ev); err != nil {
		return nil, err
	}
	return json.Marshal(ev)
}

// DecodeChange parses and validates a message body.
func DecodeChange(data []byte) (core.ChangeEvent, error) {
	var ev core.ChangeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return core.ChangeEvent{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if err := validateChange(ev); err != nil {
		return core.ChangeEvent{}, err
	}
	return ev, nil
}

func validateChange(ev core.ChangeEvent) error {
	if ev.UserID == "" {
		return fmt.Errorf("%w: missing user_id", ErrInvalidMessage)
	}
	switch ev.Op {
	case core.OpCreated, core.OpUpdated, core.OpDeleted, core.OpImported:
		return nil
	default:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidMessage, ev.Op)
	}
}
