// internal/model/message.go
package model

import "time"

type MessageTemplate struct {
	ID           int       `db:"id" json:"id"`
	EntityID     int       `db:"entity_id" json:"entity_id"`
	TriggerEvent Flag      `db:"trigger_event" json:"trigger_event"`
	Subject      string    `db:"subject" json:"subject"`
	Body         string    `db:"body" json:"body"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// SentMessage is the append-only audit record of a copied message.
type SentMessage struct {
	ID          int       `db:"id" json:"id"`
	OperationID int       `db:"operation_id" json:"operation_id"`
	TemplateID  int       `db:"template_id" json:"template_id"`
	Subject     string    `db:"subject" json:"subject"`
	Body        string    `db:"body" json:"body"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type ChangeAction string

const (
	ChangeCreated    ChangeAction = "created"
	ChangeUpdated    ChangeAction = "updated"
	ChangeArchived   ChangeAction = "archived"
	ChangeUnarchived ChangeAction = "unarchived"
	ChangeDeleted    ChangeAction = "deleted"
	ChangeImported   ChangeAction = "imported"
)

// OperationChange is published on every operation mutation.
type OperationChange struct {
	EntityID    int          `json:"entity_id"`
	OperationID int          `json:"operation_id,omitempty"`
	Action      ChangeAction `json:"action"`
	At          time.Time    `json:"at"`
}
