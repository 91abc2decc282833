package controller_test

import (
	"context"
	"sort"
	"sync"
	"time"

	appErrors "github.com/unclebandit/opsboard-backend/internal/errors"
	"github.com/unclebandit/opsboard-backend/internal/model"
)

// --- Mock Repositories ---

type MockOperationRepo struct {
	mu     sync.Mutex
	ops    map[int]*model.Operation
	nextID int
}

func (m *MockOperationRepo) Create(ctx context.Context, op *model.Operation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ops == nil {
		m.ops = map[int]*model.Operation{}
	}
	m.nextID++
	op.ID = m.nextID
	cp := *op
	m.ops[op.ID] = &cp
	return nil
}

func (m *MockOperationRepo) CreateBatch(ctx context.Context, ops []*model.Operation) error {
	for _, op := range ops {
		if err := m.Create(ctx, op); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockOperationRepo) GetByID(ctx context.Context, id int) (*model.Operation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	op, ok := m.ops[id]
	if !ok {
		return nil, appErrors.NewNotFound("operation", id)
	}
	cp := *op
	return &cp, nil
}

func (m *MockOperationRepo) list(keep func(*model.Operation) bool) []*model.Operation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Operation{}
	for _, op := range m.ops {
		if keep(op) {
			cp := *op
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MockOperationRepo) ListByEntityKind(ctx context.Context, entityID int, kind model.Kind) ([]*model.Operation, error) {
	return m.list(func(op *model.Operation) bool { return op.EntityID == entityID && op.Kind == kind }), nil
}

func (m *MockOperationRepo) ListByDateRange(ctx context.Context, from, to model.Date) ([]*model.Operation, error) {
	return m.list(func(op *model.Operation) bool {
		return !op.Archived && !op.SendDate.Before(from) && !op.SendDate.After(to)
	}), nil
}

func (m *MockOperationRepo) Update(ctx context.Context, op *model.Operation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ops[op.ID]; !ok {
		return appErrors.NewNotFound("operation", op.ID)
	}
	cp := *op
	m.ops[op.ID] = &cp
	return nil
}

func (m *MockOperationRepo) SetFlag(ctx context.Context, id int, flag model.Flag, value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	op, ok := m.ops[id]
	if !ok {
		return appErrors.NewNotFound("operation", id)
	}
	op.Set(flag, value)
	return nil
}

func (m *MockOperationRepo) SetArchived(ctx context.Context, id int, archived bool, at *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	op, ok := m.ops[id]
	if !ok {
		return appErrors.NewNotFound("operation", id)
	}
	op.Archived = archived
	op.ArchivedAt = at
	return nil
}

func (m *MockOperationRepo) Delete(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ops[id]; !ok {
		return appErrors.NewNotFound("operation", id)
	}
	delete(m.ops, id)
	return nil
}

func (m *MockOperationRepo) Stats(ctx context.Context, entityID int) (*model.OperationStats, error) {
	stats := model.NewOperationStats(entityID)
	for _, op := range m.list(func(op *model.Operation) bool { return op.EntityID == entityID }) {
		stats.Total++
		stats.ByKind[op.Kind]++
	}
	return stats, nil
}

type MockEntityRepo struct {
	entities []*model.Entity
}

func (m *MockEntityRepo) List(ctx context.Context) ([]*model.Entity, error) {
	return m.entities, nil
}

func (m *MockEntityRepo) GetByID(ctx context.Context, id int) (*model.Entity, error) {
	for _, e := range m.entities {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, appErrors.NewNotFound("entity", id)
}

func (m *MockEntityRepo) Create(ctx context.Context, e *model.Entity) error {
	for _, other := range m.entities {
		if other.Name == e.Name {
			return appErrors.ErrDuplicateEntity
		}
	}
	e.ID = len(m.entities) + 1
	m.entities = append(m.entities, e)
	return nil
}

func (m *MockEntityRepo) Rename(ctx context.Context, id int, name string) error {
	e, err := m.GetByID(ctx, id)
	if err != nil {
		return err
	}
	e.Name = name
	return nil
}

type MockTemplateRepo struct {
	templates []*model.MessageTemplate
}

func (m *MockTemplateRepo) Create(ctx context.Context, t *model.MessageTemplate) error {
	t.ID = len(m.templates) + 1
	m.templates = append(m.templates, t)
	return nil
}

func (m *MockTemplateRepo) GetByID(ctx context.Context, id int) (*model.MessageTemplate, error) {
	for _, t := range m.templates {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, appErrors.NewNotFound("template", id)
}

func (m *MockTemplateRepo) ListByEntity(ctx context.Context, entityID int) ([]*model.MessageTemplate, error) {
	out := []*model.MessageTemplate{}
	for _, t := range m.templates {
		if t.EntityID == entityID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MockTemplateRepo) FindActive(ctx context.Context, entityID int, trigger model.Flag) ([]*model.MessageTemplate, error) {
	out := []*model.MessageTemplate{}
	for _, t := range m.templates {
		if t.EntityID == entityID && t.TriggerEvent == trigger && t.IsActive {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MockTemplateRepo) SetActive(ctx context.Context, id int, active bool) error {
	t, err := m.GetByID(ctx, id)
	if err != nil {
		return err
	}
	t.IsActive = active
	return nil
}

type MockSentRepo struct {
	mu   sync.Mutex
	sent []*model.SentMessage
}

func (m *MockSentRepo) Create(ctx context.Context, msg *model.SentMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = len(m.sent) + 1
	m.sent = append(m.sent, msg)
	return nil
}

type MockCampaignRepo struct {
	campaigns map[int]*model.Campaign
	nextID    int
}

func (m *MockCampaignRepo) Create(ctx context.Context, c *model.Campaign) error {
	if m.campaigns == nil {
		m.campaigns = map[int]*model.Campaign{}
	}
	m.nextID++
	c.ID = m.nextID
	m.campaigns[c.ID] = c
	return nil
}

func (m *MockCampaignRepo) GetByID(ctx context.Context, id int) (*model.Campaign, error) {
	c, ok := m.campaigns[id]
	if !ok {
		return nil, appErrors.NewNotFound("campaign", id)
	}
	cp := *c
	return &cp, nil
}

func (m *MockCampaignRepo) ListByEntity(ctx context.Context, entityID int, archived bool) ([]*model.Campaign, error) {
	out := []*model.Campaign{}
	for _, c := range m.campaigns {
		if c.EntityID == entityID && c.Archived == archived {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MockCampaignRepo) Update(ctx context.Context, c *model.Campaign) error {
	m.campaigns[c.ID] = c
	return nil
}

func (m *MockCampaignRepo) SetArchived(ctx context.Context, id int, archived bool, at *time.Time) error {
	c, ok := m.campaigns[id]
	if !ok {
		return appErrors.NewNotFound("campaign", id)
	}
	c.Archived = archived
	c.ArchivedAt = at
	return nil
}

func (m *MockCampaignRepo) Delete(ctx context.Context, id int) error {
	if _, ok := m.campaigns[id]; !ok {
		return appErrors.NewNotFound("campaign", id)
	}
	delete(m.campaigns, id)
	return nil
}

type MockClipboard struct {
	err    error
	writes []string
}

func (m *MockClipboard) WriteAll(text string) error {
	if m.err != nil {
		return m.err
	}
	m.writes = append(m.writes, text)
	return nil
}
