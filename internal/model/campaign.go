// internal/model/campaign.go
package model

import "time"

type Campaign struct {
    ID          int        `db:"id" json:"id"`
    EntityID    int        `db:"entity_id" json:"entity_id"`
    Name        string     `db:"name" json:"name" validate:"required"`
    Description string     `db:"description" json:"description,omitempty"`
    StartDate   *Date      `db:"start_date" json:"start_date,omitempty"`
    EndDate     *Date      `db:"end_date" json:"end_date,omitempty"`
    Archived    bool       `db:"archived" json:"archived"`
    ArchivedAt  *time.Time `db:"archived_at" json:"archived_at,omitempty"`
    CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// Entity is a brand that scopes operations, campaigns and templates.
type Entity struct {
    ID        int       `db:"id" json:"id"`
    Name      string    `db:"name" json:"name"`
    CreatedAt time.Time `db:"created_at" json:"created_at"`
}
