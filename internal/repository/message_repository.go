package repository

import (
	"context"
	"database/sql"
	"errors"

	appErrors "github.com/unclebandit/opsboard-backend/internal/errors"
	"github.com/unclebandit/opsboard-backend/internal/model"
)

type TemplateRepositoryInterface interface {
	Create(ctx context.Context, t *model.MessageTemplate) error
	GetByID(ctx context.Context, id int) (*model.MessageTemplate, error)
	ListByEntity(ctx context.Context, entityID int) ([]*model.MessageTemplate, error)
	FindActive(ctx context.Context, entityID int, trigger model.Flag) ([]*model.MessageTemplate, error)
	SetActive(ctx context.Context, id int, active bool) error
}

// SentMessageRepositoryInterface is append-only
type SentMessageRepositoryInterface interface {
	Create(ctx context.Context, m *model.SentMessage) error
}

type TemplateRepository struct {
	DB *sql.DB
}

type SentMessageRepository struct {
	DB *sql.DB
}

const templateColumns = `id, entity_id, trigger_event, subject, body, is_active, created_at`

func scanTemplate(row interface{ Scan(...any) error }) (*model.MessageTemplate, error) {
	var t model.MessageTemplate
	var trigger string
	if err := row.Scan(&t.ID, &t.EntityID, &trigger, &t.Subject, &t.Body, &t.IsActive, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.TriggerEvent = model.Flag(trigger)
	return &t, nil
}

func (r *TemplateRepository) Create(ctx context.Context, t *model.MessageTemplate) error {
	query := `
		INSERT INTO message_templates (entity_id, trigger_event, subject, body, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	return r.DB.QueryRowContext(ctx, query, t.EntityID, string(t.TriggerEvent), t.Subject, t.Body, t.IsActive).
		Scan(&t.ID, &t.CreatedAt)
}

func (r *TemplateRepository) GetByID(ctx context.Context, id int) (*model.MessageTemplate, error) {
	t, err := scanTemplate(r.DB.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM message_templates WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("template", id)
		}
		return nil, err
	}
	return t, nil
}

func (r *TemplateRepository) ListByEntity(ctx context.Context, entityID int) ([]*model.MessageTemplate, error) {
	return r.query(ctx, `SELECT `+templateColumns+` FROM message_templates WHERE entity_id=$1 ORDER BY trigger_event, id`, entityID)
}

// FindActive returns the active templates for a trigger, oldest first
func (r *TemplateRepository) FindActive(ctx context.Context, entityID int, trigger model.Flag) ([]*model.MessageTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM message_templates
		WHERE entity_id=$1 AND trigger_event=$2 AND is_active=TRUE ORDER BY id`
	return r.query(ctx, query, entityID, string(trigger))
}

func (r *TemplateRepository) SetActive(ctx context.Context, id int, active bool) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE message_templates SET is_active=$1 WHERE id=$2`, active, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "template", id)
}

func (r *TemplateRepository) query(ctx context.Context, query string, args ...any) ([]*model.MessageTemplate, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []*model.MessageTemplate{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (r *SentMessageRepository) Create(ctx context.Context, m *model.SentMessage) error {
	query := `
		INSERT INTO sent_messages (operation_id, template_id, subject, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	return r.DB.QueryRowContext(ctx, query, m.OperationID, m.TemplateID, m.Subject, m.Body).Scan(&m.ID, &m.CreatedAt)
}

var (
	_ TemplateRepositoryInterface    = (*TemplateRepository)(nil)
	_ SentMessageRepositoryInterface = (*SentMessageRepository)(nil)
)
