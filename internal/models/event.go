package models

import "encoding/json"

const (
	EventCartUpdated    = "cart_updated"
	EventProductUpdated = "product_updated"
)

// Event is the envelope the backend pushes on /events/stream.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type CartUpdated struct {
	UserID ID `json:"user_id"`
}

// CartUpdatedFor reports whether e is a cart_updated event for userID.
func (e Event) CartUpdatedFor(userID string) bool {
	if e.Event != EventCartUpdated || userID == "" || len(e.Data) == 0 {
		return false
	}
	var payload CartUpdated
	if err := json.Unmarshal(e.Data, &payload); err != nil {
		return false
	}
	return payload.UserID.String() == userID
}
