package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	appErrors "github.com/unclebandit/opsboard-backend/internal/errors"
	"github.com/unclebandit/opsboard-backend/internal/model"
	"github.com/unclebandit/opsboard-backend/internal/repository"
)

// Mock repositories

type MockOperationRepo struct {
	mu        sync.Mutex
	ops       map[int]*model.Operation
	nextID    int
	batchErr  error
	batches   int
	updateErr error
}

func NewMockOperationRepo(ops ...*model.Operation) *MockOperationRepo {
	m := &MockOperationRepo{ops: map[int]*model.Operation{}, nextID: 100}
	for _, op := range ops {
		m.ops[op.ID] = op
	}
	return m
}

func clone(op *model.Operation) *model.Operation {
	c := *op
	c.Products = append([]model.Product{}, op.Products...)
	switch p := op.Payload.(type) {
	case *model.EmailPayload:
		cp := *p
		c.Payload = &cp
	case *model.SliderPayload:
		cp := *p
		c.Payload = &cp
	case *model.SocialPayload:
		cp := *p
		c.Payload = &cp
	}
	return &c
}

func (m *MockOperationRepo) Create(ctx context.Context, op *model.Operation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	op.ID = m.nextID
	op.CreatedAt = time.Now()
	m.ops[op.ID] = clone(op)
	return nil
}

func (m *MockOperationRepo) CreateBatch(ctx context.Context, ops []*model.Operation) error {
	if m.batchErr != nil {
		return m.batchErr
	}
	m.batches++
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
	return clone(op), nil
}

func (m *MockOperationRepo) ListByEntityKind(ctx context.Context, entityID int, kind model.Kind) ([]*model.Operation, error) {
	return m.filter(func(op *model.Operation) bool { return op.EntityID == entityID && op.Kind == kind }), nil
}

func (m *MockOperationRepo) ListByDateRange(ctx context.Context, from, to model.Date) ([]*model.Operation, error) {
	return m.filter(func(op *model.Operation) bool {
		return !op.Archived && !op.SendDate.Before(from) && !op.SendDate.After(to)
	}), nil
}

func (m *MockOperationRepo) filter(keep func(*model.Operation) bool) []*model.Operation {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int, 0, len(m.ops))
	for id := range m.ops {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := []*model.Operation{}
	for _, id := range ids {
		if keep(m.ops[id]) {
			out = append(out, clone(m.ops[id]))
		}
	}
	return out
}

func (m *MockOperationRepo) Update(ctx context.Context, op *model.Operation) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.ops[op.ID]
	if !ok {
		return appErrors.NewNotFound("operation", op.ID)
	}
	c := clone(op)
	c.Kind = old.Kind
	m.ops[op.ID] = c
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
	for _, op := range m.filter(func(op *model.Operation) bool { return op.EntityID == entityID }) {
		stats.Total++
		stats.ByKind[op.Kind]++
		if op.Archived {
			stats.Archived++
			continue
		}
		for _, f := range model.Flags {
			if op.Get(f) {
				stats.Flags[f]++
			}
		}
	}
	return stats, nil
}

type MockEntityRepo struct {
	entities map[int]*model.Entity
}

func NewMockEntityRepo(entities ...*model.Entity) *MockEntityRepo {
	m := &MockEntityRepo{entities: map[int]*model.Entity{}}
	for _, e := range entities {
		m.entities[e.ID] = e
	}
	return m
}

func (m *MockEntityRepo) List(ctx context.Context) ([]*model.Entity, error) {
	out := []*model.Entity{}
	for _, e := range m.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockEntityRepo) GetByID(ctx context.Context, id int) (*model.Entity, error) {
	e, ok := m.entities[id]
	if !ok {
		return nil, appErrors.NewNotFound("entity", id)
	}
	return e, nil
}

func (m *MockEntityRepo) Create(ctx context.Context, e *model.Entity) error {
	for _, other := range m.entities {
		if other.Name == e.Name {
			return appErrors.ErrDuplicateEntity
		}
	}
	e.ID = len(m.entities) + 1
	m.entities[e.ID] = e
	return nil
}

func (m *MockEntityRepo) Rename(ctx context.Context, id int, name string) error {
	e, ok := m.entities[id]
	if !ok {
		return appErrors.NewNotFound("entity", id)
	}
	e.Name = name
	return nil
}

type MockTemplateRepo struct {
	templates map[int]*model.MessageTemplate
	findErr   error
}

func NewMockTemplateRepo(templates ...*model.MessageTemplate) *MockTemplateRepo {
	m := &MockTemplateRepo{templates: map[int]*model.MessageTemplate{}}
	for _, t := range templates {
		m.templates[t.ID] = t
	}
	return m
}

func (m *MockTemplateRepo) Create(ctx context.Context, t *model.MessageTemplate) error {
	t.ID = len(m.templates) + 1
	m.templates[t.ID] = t
	return nil
}

func (m *MockTemplateRepo) GetByID(ctx context.Context, id int) (*model.MessageTemplate, error) {
	t, ok := m.templates[id]
	if !ok {
		return nil, appErrors.NewNotFound("template", id)
	}
	return t, nil
}

func (m *MockTemplateRepo) ListByEntity(ctx context.Context, entityID int) ([]*model.MessageTemplate, error) {
	return m.find(func(t *model.MessageTemplate) bool { return t.EntityID == entityID }), nil
}

func (m *MockTemplateRepo) FindActive(ctx context.Context, entityID int, trigger model.Flag) ([]*model.MessageTemplate, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.find(func(t *model.MessageTemplate) bool {
		return t.EntityID == entityID && t.TriggerEvent == trigger && t.IsActive
	}), nil
}

func (m *MockTemplateRepo) SetActive(ctx context.Context, id int, active bool) error {
	t, ok := m.templates[id]
	if !ok {
		return appErrors.NewNotFound("template", id)
	}
	t.IsActive = active
	return nil
}

func (m *MockTemplateRepo) find(keep func(*model.MessageTemplate) bool) []*model.MessageTemplate {
	out := []*model.MessageTemplate{}
	for _, t := range m.templates {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type MockSentRepo struct {
	mu   sync.Mutex
	sent []*model.SentMessage
	err  error
}

func (m *MockSentRepo) Create(ctx context.Context, msg *model.SentMessage) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = len(m.sent) + 1
	m.sent = append(m.sent, msg)
	return nil
}

func (m *MockSentRepo) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type MockClipboard struct {
	mu     sync.Mutex
	writes []string
	err    error
	delay  time.Duration
}

func (m *MockClipboard) WriteAll(text string) error {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, text)
	return nil
}

func (m *MockClipboard) Writes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.writes...)
}

type MockCampaignRepo struct {
	campaigns map[int]*model.Campaign
	deleted   []int
}

func NewMockCampaignRepo(campaigns ...*model.Campaign) *MockCampaignRepo {
	m := &MockCampaignRepo{campaigns: map[int]*model.Campaign{}}
	for _, c := range campaigns {
		m.campaigns[c.ID] = c
	}
	return m
}

func (m *MockCampaignRepo) Create(ctx context.Context, c *model.Campaign) error {
	c.ID = len(m.campaigns) + len(m.deleted) + 1
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
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockCampaignRepo) Update(ctx context.Context, c *model.Campaign) error {
	if _, ok := m.campaigns[c.ID]; !ok {
		return appErrors.NewNotFound("campaign", c.ID)
	}
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
	m.deleted = append(m.deleted, id)
	return nil
}

var errStore = errors.New("store unavailable")

var (
	_ repository.OperationRepositoryInterface   = (*MockOperationRepo)(nil)
	_ repository.EntityRepositoryInterface      = (*MockEntityRepo)(nil)
	_ repository.TemplateRepositoryInterface    = (*MockTemplateRepo)(nil)
	_ repository.SentMessageRepositoryInterface = (*MockSentRepo)(nil)
	_ repository.CampaignRepositoryInterface    = (*MockCampaignRepo)(nil)
)
