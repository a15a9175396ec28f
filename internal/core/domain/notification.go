package domain

import (
	"encoding/json"
	"time"
)

const (
	OutboxStatusPending    = "pending"
	OutboxStatusDispatched = "dispatched"
	OutboxStatusDead       = "dead"
)

// Recipient is a resolved follower a notification is addressed to.
type Recipient struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ChangeNotification is the payload delivered to followers when a
// definition changes. The editor is never among the recipients.
type ChangeNotification struct {
	ID           string          `json:"notification_id"`
	DefinitionID string          `json:"definition_id"`
	GroupID      string          `json:"group_id"`
	Name         string          `json:"name"`
	URL          string          `json:"url"`
	Editor       string          `json:"editor"`
	ModifiedAt   time.Time       `json:"modified_at"`
	Recipients   []Recipient     `json:"recipients"`
	Definition   json.RawMessage `json:"definition"`
}

// OutboxNotification is one queued delivery. Rows go pending →
// dispatched, or pending → dead after the retry budget is spent.
type OutboxNotification struct {
	ID             int64
	NotificationID string
	DefinitionID   string
	Topic          string
	PayloadJSON    json.RawMessage
	Status         string
	Attempts       int
	NextAttemptAt  time.Time
	LastError      string
	CreatedAt      time.Time
	DispatchedAt   *time.Time
}
