package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	appErrors "github.com/unclebandit/opsboard-backend/internal/errors"
	"github.com/unclebandit/opsboard-backend/internal/filter"
	"github.com/unclebandit/opsboard-backend/internal/logging"
	"github.com/unclebandit/opsboard-backend/internal/metrics"
	"github.com/unclebandit/opsboard-backend/internal/model"
	"github.com/unclebandit/opsboard-backend/internal/queue"
	"github.com/unclebandit/opsboard-backend/internal/repository"
)

const DefaultAlertWindowDays = 5

type OperationService struct {
	Repo            repository.OperationRepositoryInterface
	Queue           queue.Queue
	Metrics         *metrics.Metrics
	AlertWindowDays int
	Today           func() model.Date
}

// OperationInput is the create payload for one operation.
type OperationInput struct {
	SendDate   model.Date      `json:"send_date"`
	Title      string          `json:"title" validate:"required,max=255"`
	Theme      string          `json:"theme" validate:"max=255"`
	Language   string          `json:"language" validate:"omitempty,language"`
	Brief      string          `json:"brief"`
	CampaignID *int            `json:"campaign_id"`
	Products   []model.Product `json:"products" validate:"dive"`
	Payload    json.RawMessage `json:"payload"`
}

// OperationPatch is a partial update. Nil fields are left unchanged.
type OperationPatch struct {
	Kind          *model.Kind      `json:"kind"`
	SendDate      *model.Date      `json:"send_date"`
	Title         *string          `json:"title" validate:"omitempty,max=255"`
	Theme         *string          `json:"theme" validate:"omitempty,max=255"`
	Language      *string          `json:"language" validate:"omitempty,language"`
	Brief         *string          `json:"brief"`
	CampaignID    *int             `json:"campaign_id"`
	ClearCampaign bool             `json:"clear_campaign"`
	Products      *[]model.Product `json:"products"`
	Payload       json.RawMessage  `json:"payload"`
}

// OperationView is an operation as listed, with its send-date alert.
type OperationView struct {
	*model.Operation
	Alert model.Alert `json:"alert"`
}

func (s *OperationService) today() model.Date {
	if s.Today != nil {
		return s.Today()
	}
	return model.Today()
}

func (s *OperationService) window() int {
	if s.AlertWindowDays > 0 {
		return s.AlertWindowDays
	}
	return DefaultAlertWindowDays
}

// Create stores a new operation with every flag false and the kind's default payload.
func (s *OperationService) Create(ctx context.Context, entityID int, kind model.Kind, in OperationInput) (*model.Operation, error) {
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}
	if in.SendDate.IsZero() {
		return nil, appErrors.NewValidation("send_date", "is required")
	}
	payload, err := model.DecodePayload(kind, in.Payload)
	if err != nil {
		if errors.Is(err, appErrors.ErrUnknownKind) {
			return nil, appErrors.NewValidation("kind", err.Error())
		}
		return nil, appErrors.NewValidation("payload", err.Error())
	}

	op := NewOperation(entityID, kind, in.SendDate, in.Title)
	op.Theme = strings.TrimSpace(in.Theme)
	if in.Language != "" {
		op.Language = in.Language
	}
	op.Brief = in.Brief
	op.CampaignID = in.CampaignID
	if in.Products != nil {
		op.Products = in.Products
	}
	op.Payload = payload

	if err := s.Repo.Create(ctx, op); err != nil {
		return nil, fmt.Errorf("create operation: %w", err)
	}
	s.publish(op.EntityID, op.ID, model.ChangeCreated)
	return op, nil
}

// NewOperation builds an unsaved operation with the creation defaults.
func NewOperation(entityID int, kind model.Kind, sendDate model.Date, title string) *model.Operation {
	return &model.Operation{
		EntityID: entityID,
		Kind:     kind,
		SendDate: sendDate,
		Title:    strings.TrimSpace(title),
		Language: string(model.DefaultLanguage),
		Products: []model.Product{},
		Payload:  model.DefaultPayload(kind),
	}
}

func (s *OperationService) Get(ctx context.Context, id int) (*model.Operation, error) {
	return s.Repo.GetByID(ctx, id)
}

// List returns one entity's operations of a kind that pass criteria, sorted by send date.
func (s *OperationService) List(ctx context.Context, entityID int, kind model.Kind, c filter.Criteria) ([]OperationView, error) {
	ops, err := s.Repo.ListByEntityKind(ctx, entityID, kind)
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	return s.views(filter.Apply(ops, c)), nil
}

func (s *OperationService) views(ops []*model.Operation) []OperationView {
	today, window := s.today(), s.window()
	views := make([]OperationView, len(ops))
	for i, op := range ops {
		views[i] = OperationView{Operation: op}
		if !op.Archived {
			views[i].Alert = op.AlertStatus(today, window)
		}
	}
	return views
}

// Update applies patch to the operation. The kind never changes.
func (s *OperationService) Update(ctx context.Context, id int, patch OperationPatch) (*model.Operation, error) {
	if err := ValidateStruct(patch); err != nil {
		return nil, err
	}
	op, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Kind != nil && *patch.Kind != op.Kind {
		return nil, fmt.Errorf("%w: operation %d is %s", appErrors.ErrKindImmutable, id, op.Kind)
	}

	if patch.SendDate != nil {
		if patch.SendDate.IsZero() {
			return nil, appErrors.NewValidation("send_date", "cannot be cleared")
		}
		op.SendDate = *patch.SendDate
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, appErrors.NewValidation("title", "is required")
		}
		op.Title = title
	}
	if patch.Theme != nil {
		op.Theme = strings.TrimSpace(*patch.Theme)
	}
	if patch.Language != nil {
		op.Language = *patch.Language
	}
	if patch.Brief != nil {
		op.Brief = *patch.Brief
	}
	if patch.ClearCampaign {
		op.CampaignID = nil
	} else if patch.CampaignID != nil {
		op.CampaignID = patch.CampaignID
	}
	if patch.Products != nil {
		for _, p := range *patch.Products {
			if err := ValidateStruct(p); err != nil {
				return nil, err
			}
		}
		op.Products = *patch.Products
	}
	if len(patch.Payload) > 0 {
		// decode over the current payload so absent fields keep their value
		if err := json.Unmarshal(patch.Payload, op.Payload); err != nil {
			return nil, appErrors.NewValidation("payload", err.Error())
		}
	}

	if err := s.Repo.Update(ctx, op); err != nil {
		return nil, fmt.Errorf("update operation %d: %w", id, err)
	}
	s.publish(op.EntityID, op.ID, model.ChangeUpdated)
	return op, nil
}

// SetFlag toggles one checklist stage. Concurrent toggles are last-write-wins.
func (s *OperationService) SetFlag(ctx context.Context, id int, flag model.Flag, value bool) (*model.Operation, error) {
	if _, ok := model.ParseFlag(string(flag)); !ok {
		return nil, appErrors.NewValidation("flag", fmt.Sprintf("unknown flag %q", flag))
	}
	op, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.SetFlag(ctx, id, flag, value); err != nil {
		return nil, fmt.Errorf("set %s on operation %d: %w", flag, id, err)
	}
	op.Set(flag, value)
	s.publish(op.EntityID, op.ID, model.ChangeUpdated)
	return op, nil
}

func (s *OperationService) AddProduct(ctx context.Context, id int, p model.Product) (*model.Operation, error) {
	p.Label = strings.TrimSpace(p.Label)
	p.URL = strings.TrimSpace(p.URL)
	if err := ValidateStruct(p); err != nil {
		return nil, err
	}
	op, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	op.Products = append(op.Products, p)
	if err := s.Repo.Update(ctx, op); err != nil {
		return nil, fmt.Errorf("add product to operation %d: %w", id, err)
	}
	s.publish(op.EntityID, op.ID, model.ChangeUpdated)
	return op, nil
}

func (s *OperationService) RemoveProduct(ctx context.Context, id, index int) (*model.Operation, error) {
	op, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(op.Products) {
		return nil, appErrors.NewValidation("index", fmt.Sprintf("no product at position %d", index))
	}
	op.Products = append(op.Products[:index:index], op.Products[index+1:]...)
	if err := s.Repo.Update(ctx, op); err != nil {
		return nil, fmt.Errorf("remove product from operation %d: %w", id, err)
	}
	s.publish(op.EntityID, op.ID, model.ChangeUpdated)
	return op, nil
}

func (s *OperationService) Archive(ctx context.Context, id int) (*model.Operation, error) {
	now := time.Now().UTC()
	return s.setArchived(ctx, id, true, &now, model.ChangeArchived)
}

func (s *OperationService) Unarchive(ctx context.Context, id int) (*model.Operation, error) {
	return s.setArchived(ctx, id, false, nil, model.ChangeUnarchived)
}

func (s *OperationService) setArchived(ctx context.Context, id int, archived bool, at *time.Time, action model.ChangeAction) (*model.Operation, error) {
	op, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.SetArchived(ctx, id, archived, at); err != nil {
		return nil, fmt.Errorf("%s operation %d: %w", action, id, err)
	}
	op.Archived = archived
	op.ArchivedAt = at
	s.publish(op.EntityID, op.ID, action)
	return op, nil
}

// Delete permanently removes the operation and its sent-message log.
func (s *OperationService) Delete(ctx context.Context, id int, confirmed bool) error {
	if !confirmed {
		return appErrors.ErrConfirmationRequired
	}
	op, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete operation %d: %w", id, err)
	}
	s.publish(op.EntityID, op.ID, model.ChangeDeleted)
	return nil
}

// Calendar lists non-archived operations of every entity between from and to inclusive.
func (s *OperationService) Calendar(ctx context.Context, from, to model.Date) ([]OperationView, error) {
	if from.IsZero() || to.IsZero() {
		return nil, appErrors.NewValidation("range", "from and to are required")
	}
	if to.Before(from) {
		return nil, appErrors.NewValidation("range", "to is before from")
	}
	ops, err := s.Repo.ListByDateRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("calendar: %w", err)
	}
	filter.SortBySendDate(ops)
	return s.views(ops), nil
}

func (s *OperationService) Stats(ctx context.Context, entityID int) (*model.OperationStats, error) {
	return s.Repo.Stats(ctx, entityID)
}

// NotifyImported announces a bulk insert for entityID.
func (s *OperationService) NotifyImported(entityID int) {
	s.publish(entityID, 0, model.ChangeImported)
}

func (s *OperationService) publish(entityID, operationID int, action model.ChangeAction) {
	s.Metrics.Mutation(string(action))
	if s.Queue == nil {
		return
	}
	change := model.OperationChange{
		EntityID:    entityID,
		OperationID: operationID,
		Action:      action,
		At:          time.Now().UTC(),
	}
	err := s.Queue.Publish(queue.TopicOperationChanges, change)
	if err != nil && !errors.Is(err, queue.ErrNoSubscribers) {
		logging.LogError("change_publish_failed", err, log.Fields{
			"entity_id":    entityID,
			"operation_id": operationID,
			"action":       action,
		})
	}
}
