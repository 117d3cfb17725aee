package domain

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	UserID    uuid.UUID        `json:"user_id" db:"user_id"`
	RequestID *uuid.UUID       `json:"request_id,omitempty" db:"request_id"`
	Type      NotificationType `json:"type" db:"type"`
	Message   string           `json:"message" db:"message"`
	IsRead    bool             `json:"read" db:"is_read"`
	ReadAt    *time.Time       `json:"read_at,omitempty" db:"read_at"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

type NotificationType string

const (
	NotifStatusChanged      NotificationType = "STATUS_CHANGED"
	NotifVerificationQueued NotificationType = "VERIFICATION_QUEUED"
)
