package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification is an outbound message addressed to a user (advisor).
type Notification struct {
	UserID    uuid.UUID
	Message   string
	CreatedAt time.Time
}
