package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// ChangeEvent announces a successful mutation of one user's collection.
// It carries identifiers only; consumers re-read the store.
type ChangeEvent struct {
	UserID     string    `json:"userId"`
	Collection string    `json:"collection"`
	Operation  string    `json:"operation"`
	EntityID   string    `json:"entityId,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewChangeEvent creates an event stamped with the current time.
func NewChangeEvent(userID, collection, operation, entityID string) *ChangeEvent {
	return &ChangeEvent{
		UserID:     userID,
		Collection: collection,
		Operation:  operation,
		EntityID:   entityID,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ChangeEventFromJSON decodes an event and checks it names a user and collection.
func ChangeEventFromJSON(data []byte) (*ChangeEvent, error) {
	var ev ChangeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if ev.UserID == "" || ev.Collection == "" {
		return nil, errors.New("change event without user or collection")
	}
	return &ev, nil
}
