// internal/service/template_service.go
package service

import (
    "context"
    "fmt"
    "strings"

    log "github.com/sirupsen/logrus"

    "github.com/unclebandit/opsboard-backend/internal/model"
    "github.com/unclebandit/opsboard-backend/internal/repository"
)

// Rendered is a template rendered against one operation.
type Rendered struct {
    Subject string `json:"subject"`
    Body    string `json:"body"`
    Text    string `json:"text"`
}

// RenderTemplate replaces every {{key}} token in template in a single pass.
// Tokens without a key in data are left untouched.
func RenderTemplate(template string, data map[string]string) string {
    pairs := make([]string, 0, len(data)*2)
    for k, v := range data {
        pairs = append(pairs, "{{"+k+"}}", v)
    }
    return strings.NewReplacer(pairs...).Replace(template)
}

// MessageVariables resolves the placeholder values for op.
func MessageVariables(op *model.Operation, entityName string) map[string]string {
    sendDate := ""
    if !op.SendDate.IsZero() {
        sendDate = op.SendDate.Format()
    }
    return map[string]string{
        "title":           op.Title,
        "send_date":       sendDate,
        "kind":            op.Kind.Label(),
        "theme":           op.Theme,
        "language":        op.Language,
        "entity":          entityName,
        "brief":           op.Brief,
        "localized_links": localizedLinks(op),
    }
}

func localizedLinks(op *model.Operation) string {
    email := op.Email()
    if email == nil {
        return ""
    }
    var b strings.Builder
    for _, l := range email.Links() {
        b.WriteString(string(l.Language))
        b.WriteString(" : ")
        b.WriteString(l.URL)
        b.WriteString("\n")
    }
    return strings.TrimSuffix(b.String(), "\n")
}

// RenderMessage renders tpl against op. Text carries a "Subject:" header only
// when the template has a subject.
func RenderMessage(tpl *model.MessageTemplate, op *model.Operation, entityName string) Rendered {
    vars := MessageVariables(op, entityName)
    r := Rendered{
        Subject: RenderTemplate(tpl.Subject, vars),
        Body:    RenderTemplate(tpl.Body, vars),
    }
    if tpl.Subject == "" {
        r.Text = r.Body
    } else {
        r.Text = "Subject: " + r.Subject + "\n\n" + r.Body
    }
    return r
}

// TemplateService manages the message templates of each entity. At most one
// template is active per (entity, trigger).
type TemplateService struct {
    Repo       repository.TemplateRepositoryInterface
    EntityRepo repository.EntityRepositoryInterface
}

type TemplateInput struct {
    TriggerEvent string `json:"trigger_event" validate:"required,flag"`
    Subject      string `json:"subject" validate:"max=255"`
    Body         string `json:"body" validate:"required"`
    IsActive     bool   `json:"is_active"`
}

func (s *TemplateService) ListTemplates(ctx context.Context, entityID int) ([]*model.MessageTemplate, error) {
    return s.Repo.ListByEntity(ctx, entityID)
}

func (s *TemplateService) CreateTemplate(ctx context.Context, entityID int, in TemplateInput) (*model.MessageTemplate, error) {
    if err := ValidateStruct(in); err != nil {
        return nil, err
    }
    if _, err := s.EntityRepo.GetByID(ctx, entityID); err != nil {
        return nil, err
    }
    trigger, _ := model.ParseFlag(in.TriggerEvent)

    if in.IsActive {
        if err := s.deactivateOthers(ctx, entityID, trigger, 0); err != nil {
            return nil, err
        }
    }
    t := &model.MessageTemplate{
        EntityID:     entityID,
        TriggerEvent: trigger,
        Subject:      in.Subject,
        Body:         in.Body,
        IsActive:     in.IsActive,
    }
    if err := s.Repo.Create(ctx, t); err != nil {
        return nil, fmt.Errorf("create template: %w", err)
    }
    return t, nil
}

// SetActive switches a template on or off. Activating one deactivates the
// other active templates for the same trigger.
func (s *TemplateService) SetActive(ctx context.Context, id int, active bool) (*model.MessageTemplate, error) {
    t, err := s.Repo.GetByID(ctx, id)
    if err != nil {
        return nil, err
    }
    if active {
        if err := s.deactivateOthers(ctx, t.EntityID, t.TriggerEvent, t.ID); err != nil {
            return nil, err
        }
    }
    if err := s.Repo.SetActive(ctx, id, active); err != nil {
        return nil, err
    }
    t.IsActive = active
    return t, nil
}

func (s *TemplateService) deactivateOthers(ctx context.Context, entityID int, trigger model.Flag, keep int) error {
    active, err := s.Repo.FindActive(ctx, entityID, trigger)
    if err != nil {
        return err
    }
    for _, other := range active {
        if other.ID == keep {
            continue
        }
        if err := s.Repo.SetActive(ctx, other.ID, false); err != nil {
            return err
        }
        log.WithFields(log.Fields{"template_id": other.ID, "trigger": trigger}).Info("template deactivated")
    }
    return nil
}
