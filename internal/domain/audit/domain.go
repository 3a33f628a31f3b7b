package audit

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventUserRegistered = "user.registered"
	EventUserLogin      = "user.login"
	EventUserLogout     = "user.logout"
)

// Event is a fire-and-forget audit record of an auth operation. Delivery is
// best-effort; losing one never fails the request that produced it.
type Event struct {
	Type     string    `json:"type"`
	UserID   uuid.UUID `json:"user_id"`
	Platform string    `json:"platform"`
	At       time.Time `json:"at"`
}
