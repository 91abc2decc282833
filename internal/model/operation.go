// internal/model/operation.go
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	appErrors "github.com/unclebandit/opsboard-backend/internal/errors"
)

type Kind string

const (
	KindEmail  Kind = "email"
	KindSlider Kind = "slider"
	KindSocial Kind = "social"
)

// Label is the human form used in rendered messages.
func (k Kind) Label() string {
	switch k {
	case KindEmail:
		return "Email"
	case KindSlider:
		return "Slider"
	case KindSocial:
		return "Social"
	}
	return ""
}

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindEmail, KindSlider, KindSocial:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", appErrors.ErrUnknownKind, s)
}

type Language string

// Languages is the canonical language set, in display and link order.
var Languages = []Language{"FR", "EN", "DE", "ES", "IT", "NL"}

const DefaultLanguage Language = "FR"

func ValidLanguage(s string) bool {
	for _, l := range Languages {
		if string(l) == s {
			return true
		}
	}
	return false
}

// Product is a product reference shown on an operation.
type Product struct {
	Label string `json:"label" validate:"required"`
	URL   string `json:"url,omitempty" validate:"omitempty,httpurl"`
}

// Alert flags operations whose send date is close.
type Alert struct {
	Show bool `json:"show"`
	Days int  `json:"days,omitempty"`
}

type Operation struct {
	ID         int       `json:"id"`
	EntityID   int       `json:"entity_id"`
	Kind       Kind      `json:"kind"`
	SendDate   Date      `json:"send_date"`
	Title      string    `json:"title"`
	Theme      string    `json:"theme,omitempty"`
	Language   string    `json:"language,omitempty"`
	Brief      string    `json:"brief,omitempty"`
	CampaignID *int      `json:"campaign_id,omitempty"`
	Products   []Product `json:"products"`
	Checklist
	Archived   bool       `json:"archived"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
	Payload    Payload    `json:"payload"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// AlertStatus reports whether the send date falls within window days from today.
func (o *Operation) AlertStatus(today Date, window int) Alert {
	days := today.DaysUntil(o.SendDate)
	if days >= 0 && days <= window {
		return Alert{Show: true, Days: days}
	}
	return Alert{}
}

// Email returns the email payload, or nil for other kinds.
func (o *Operation) Email() *EmailPayload {
	p, _ := o.Payload.(*EmailPayload)
	return p
}

func (o *Operation) UnmarshalJSON(b []byte) error {
	type alias Operation
	aux := struct {
		*alias
		Payload json.RawMessage `json:"payload"`
	}{alias: (*alias)(o)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if o.Kind == "" {
		return nil
	}
	p, err := DecodePayload(o.Kind, aux.Payload)
	if err != nil {
		return err
	}
	o.Payload = p
	return nil
}

// RawOperation is an operations row as it comes out of the store, before validation.
type RawOperation struct {
	ID         int
	EntityID   int
	Kind       string
	SendDate   Date
	Title      string
	Theme      string
	Language   string
	Brief      string
	CampaignID *int
	Products   []byte
	Checklist  Checklist
	Archived   bool
	ArchivedAt *time.Time
	Payload    []byte
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ParseOperation converts a store row into an Operation, rejecting unknown kinds.
func ParseOperation(raw RawOperation) (*Operation, error) {
	kind, err := ParseKind(raw.Kind)
	if err != nil {
		return nil, fmt.Errorf("operation %d: %w", raw.ID, err)
	}
	payload, err := DecodePayload(kind, raw.Payload)
	if err != nil {
		return nil, fmt.Errorf("operation %d payload: %w", raw.ID, err)
	}
	products := []Product{}
	if len(raw.Products) > 0 {
		if err := json.Unmarshal(raw.Products, &products); err != nil {
			return nil, fmt.Errorf("operation %d products: %w", raw.ID, err)
		}
	}
	return &Operation{
		ID:         raw.ID,
		EntityID:   raw.EntityID,
		Kind:       kind,
		SendDate:   raw.SendDate,
		Title:      raw.Title,
		Theme:      raw.Theme,
		Language:   raw.Language,
		Brief:      raw.Brief,
		CampaignID: raw.CampaignID,
		Products:   products,
		Checklist:  raw.Checklist,
		Archived:   raw.Archived,
		ArchivedAt: raw.ArchivedAt,
		Payload:    payload,
		CreatedAt:  raw.CreatedAt,
		UpdatedAt:  raw.UpdatedAt,
	}, nil
}
