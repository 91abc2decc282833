package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/unclebandit/opsboard-backend/internal/clipboard"
	appErrors "github.com/unclebandit/opsboard-backend/internal/errors"
	"github.com/unclebandit/opsboard-backend/internal/indicator"
	"github.com/unclebandit/opsboard-backend/internal/logging"
	"github.com/unclebandit/opsboard-backend/internal/metrics"
	"github.com/unclebandit/opsboard-backend/internal/model"
	"github.com/unclebandit/opsboard-backend/internal/repository"
)

const (
	DefaultIndicatorTTL = 2 * time.Second
	DefaultDedupeTTL    = 10 * time.Minute
)

// MessageService renders status messages, copies them and keeps the sent-message log.
type MessageService struct {
	Operations   repository.OperationRepositoryInterface
	Entities     repository.EntityRepositoryInterface
	Templates    repository.TemplateRepositoryInterface
	Sent         repository.SentMessageRepositoryInterface
	Clipboard    clipboard.Clipboard
	Indicator    indicator.Indicator
	Metrics      *metrics.Metrics
	IndicatorTTL time.Duration
	DedupeTTL    time.Duration

	mu        sync.Mutex
	clicks    map[string]*click
	lastSweep time.Time
}

type CopyRequest struct {
	OperationID int
	Trigger     model.Flag
	// ClickID identifies one user click. Retries of the same click are not copied twice.
	ClickID string
}

type CopyResult struct {
	OperationID   int        `json:"operation_id"`
	Trigger       model.Flag `json:"trigger"`
	TemplateID    int        `json:"template_id"`
	SentMessageID int        `json:"sent_message_id"`
	Rendered
	Duplicate bool `json:"duplicate"`
}

type click struct {
	done   chan struct{}
	result *CopyResult
	err    error
	at     time.Time
}

// Copy resolves the active template for the trigger, renders it against the
// operation, writes it to the clipboard and records a SentMessage.
// Nothing is recorded when the template is missing or the clipboard write fails.
func (s *MessageService) Copy(ctx context.Context, req CopyRequest) (*CopyResult, error) {
	if _, ok := model.ParseFlag(string(req.Trigger)); !ok {
		return nil, appErrors.NewValidation("trigger", fmt.Sprintf("unknown trigger %q", req.Trigger))
	}
	if req.ClickID == "" {
		return s.copy(ctx, req)
	}

	key := clickKey(req)
	c, first := s.claim(key)
	if !first {
		select {
		case <-c.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if c.err != nil {
			return nil, c.err
		}
		dup := *c.result
		dup.Duplicate = true
		return &dup, nil
	}

	result, err := s.copy(ctx, req)
	s.finish(key, c, result, err)
	return result, err
}

// Copied reports whether the indicator for (operationID, trigger) is showing.
func (s *MessageService) Copied(ctx context.Context, operationID int, trigger model.Flag) bool {
	if s.Indicator == nil {
		return false
	}
	return s.Indicator.Active(ctx, indicator.Key(operationID, trigger))
}

// Preview renders the active template without copying or logging.
func (s *MessageService) Preview(ctx context.Context, operationID int, trigger model.Flag) (*model.MessageTemplate, Rendered, error) {
	op, entity, tpl, err := s.resolve(ctx, operationID, trigger)
	if err != nil {
		return nil, Rendered{}, err
	}
	return tpl, RenderMessage(tpl, op, entity.Name), nil
}

func (s *MessageService) copy(ctx context.Context, req CopyRequest) (*CopyResult, error) {
	op, entity, tpl, err := s.resolve(ctx, req.OperationID, req.Trigger)
	if err != nil {
		if _, ok := err.(*appErrors.NoTemplateConfiguredError); ok {
			s.Metrics.CopyFailed("no_template")
		}
		return nil, err
	}

	rendered := RenderMessage(tpl, op, entity.Name)

	if err := s.Clipboard.WriteAll(rendered.Text); err != nil {
		s.Metrics.CopyFailed("clipboard")
		logging.LogError("clipboard_write_failed", err, log.Fields{
			"operation_id": op.ID,
			"trigger":      req.Trigger,
		})
		return nil, &appErrors.ClipboardError{Err: err}
	}

	sent := &model.SentMessage{
		OperationID: op.ID,
		TemplateID:  tpl.ID,
		Subject:     rendered.Subject,
		Body:        rendered.Body,
	}
	if err := s.Sent.Create(ctx, sent); err != nil {
		s.Metrics.CopyFailed("audit")
		return nil, fmt.Errorf("record sent message: %w", err)
	}

	s.markCopied(ctx, op.ID, req.Trigger)
	s.Metrics.CopyDone(string(req.Trigger))
	logging.LogEvent("message_copied", log.Fields{
		"operation_id":    op.ID,
		"template_id":     tpl.ID,
		"sent_message_id": sent.ID,
		"trigger":         req.Trigger,
	})

	return &CopyResult{
		OperationID:   op.ID,
		Trigger:       req.Trigger,
		TemplateID:    tpl.ID,
		SentMessageID: sent.ID,
		Rendered:      rendered,
	}, nil
}

func (s *MessageService) resolve(ctx context.Context, operationID int, trigger model.Flag) (*model.Operation, *model.Entity, *model.MessageTemplate, error) {
	op, err := s.Operations.GetByID(ctx, operationID)
	if err != nil {
		return nil, nil, nil, err
	}
	entity, err := s.Entities.GetByID(ctx, op.EntityID)
	if err != nil {
		return nil, nil, nil, err
	}
	templates, err := s.Templates.FindActive(ctx, op.EntityID, trigger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("find template: %w", err)
	}
	if len(templates) == 0 {
		return nil, nil, nil, &appErrors.NoTemplateConfiguredError{EntityID: op.EntityID, Trigger: string(trigger)}
	}
	if len(templates) > 1 {
		log.WithFields(log.Fields{
			"entity_id": op.EntityID,
			"trigger":   trigger,
			"count":     len(templates),
		}).Warn("several active templates for trigger, using the oldest")
	}
	return op, entity, templates[0], nil
}

func (s *MessageService) markCopied(ctx context.Context, operationID int, trigger model.Flag) {
	if s.Indicator == nil {
		return
	}
	ttl := s.IndicatorTTL
	if ttl <= 0 {
		ttl = DefaultIndicatorTTL
	}
	if err := s.Indicator.Mark(ctx, indicator.Key(operationID, trigger), ttl); err != nil {
		log.WithError(err).WithField("operation_id", operationID).Warn("failed to mark copied indicator")
	}
}

// clickKey scopes a ClickID to one (operation, trigger) so a reused key never
// answers for another message.
func clickKey(req CopyRequest) string {
	return fmt.Sprintf("%d:%s:%s", req.OperationID, req.Trigger, req.ClickID)
}

// claim registers key. first is false when the click was already seen.
// Expired entries are dropped on lookup and by a sweep that runs at most once per TTL.
func (s *MessageService) claim(key string) (c *click, first bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.clicks == nil {
		s.clicks = map[string]*click{}
	}
	ttl := s.DedupeTTL
	if ttl <= 0 {
		ttl = DefaultDedupeTTL
	}
	now := time.Now()
	if now.Sub(s.lastSweep) > ttl {
		for k, old := range s.clicks {
			if old.expired(now, ttl) {
				delete(s.clicks, k)
			}
		}
		s.lastSweep = now
	}

	if c, ok := s.clicks[key]; ok {
		if !c.expired(now, ttl) {
			return c, false
		}
		delete(s.clicks, key)
	}
	c = &click{done: make(chan struct{}), at: now}
	s.clicks[key] = c
	return c, true
}

// expired is false while the click is still in flight.
func (c *click) expired(now time.Time, ttl time.Duration) bool {
	return c.result != nil && now.Sub(c.at) > ttl
}

// finish publishes the outcome to waiting duplicates. Failed clicks are
// forgotten so the user can retry them.
func (s *MessageService) finish(key string, c *click, result *CopyResult, err error) {
	s.mu.Lock()
	c.result, c.err = result, err
	if err != nil {
		delete(s.clicks, key)
	}
	s.mu.Unlock()
	close(c.done)
}
