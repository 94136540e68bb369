package mykafka

import (
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Username   string    `json:"user_name,omitempty"`
	Data       any       `json:"data,omitempty"`
}

func NewEvent(typ, username string, data any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		OccurredAt: time.Now().UTC(),
		Username:   username,
		Data:       data,
	}
}
