package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	NotificationEmail NotificationKind = "email"
	NotificationPush  NotificationKind = "push"
)

const (
	OutboxPending = "pending"
	OutboxSent    = "sent"
	OutboxFailed  = "failed"
)

// Notification is one pending delivery recorded together with an order.
type Notification struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	Kind          NotificationKind
	Payload       json.RawMessage
	Status        string
	Attempts      int
	LastError     sql.NullString
	NextAttemptAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderNotification is the payload shared by the email and push deliveries.
type OrderNotification struct {
	OrderID     string      `json:"orderId"`
	Service     string      `json:"service" binding:"required"`
	Name        string      `json:"name" binding:"required"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone"`
	Description string      `json:"description"`
	Files       []OrderFile `json:"files,omitempty"`
}
