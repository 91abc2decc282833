// internal/service/campaign_service.go
package service

import (
    "context"
    "fmt"
    "strings"
    "time"

    log "github.com/sirupsen/logrus"

    appErrors "github.com/unclebandit/opsboard-backend/internal/errors"
    "github.com/unclebandit/opsboard-backend/internal/model"
    "github.com/unclebandit/opsboard-backend/internal/repository"
)

type CampaignService struct {
    CampaignRepo repository.CampaignRepositoryInterface
    EntityRepo   repository.EntityRepositoryInterface
}

type CampaignInput struct {
    Name        string      `json:"name" validate:"required,max=255"`
    Description string      `json:"description"`
    StartDate   *model.Date `json:"start_date"`
    EndDate     *model.Date `json:"end_date"`
}

func (in CampaignInput) check() error {
    if err := ValidateStruct(in); err != nil {
        return err
    }
    if strings.TrimSpace(in.Name) == "" {
        return appErrors.NewValidation("name", "is required")
    }
    if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
        return appErrors.NewValidation("end_date", "is before start_date")
    }
    return nil
}

func (s *CampaignService) CreateCampaign(ctx context.Context, entityID int, in CampaignInput) (*model.Campaign, error) {
    if err := in.check(); err != nil {
        return nil, err
    }
    if _, err := s.EntityRepo.GetByID(ctx, entityID); err != nil {
        return nil, err
    }

    c := &model.Campaign{
        EntityID:    entityID,
        Name:        strings.TrimSpace(in.Name),
        Description: in.Description,
        StartDate:   in.StartDate,
        EndDate:     in.EndDate,
    }
    if err := s.CampaignRepo.Create(ctx, c); err != nil {
        return nil, fmt.Errorf("create campaign: %w", err)
    }
    return c, nil
}

// ListCampaigns returns either the active or the archived campaigns of an entity, never both
func (s *CampaignService) ListCampaigns(ctx context.Context, entityID int, archived bool) ([]*model.Campaign, error) {
    return s.CampaignRepo.ListByEntity(ctx, entityID, archived)
}

// GetCampaignDetails fetches a campaign by ID
func (s *CampaignService) GetCampaignDetails(ctx context.Context, id int) (*model.Campaign, error) {
    return s.CampaignRepo.GetByID(ctx, id)
}

func (s *CampaignService) UpdateCampaign(ctx context.Context, id int, in CampaignInput) (*model.Campaign, error) {
    if err := in.check(); err != nil {
        return nil, err
    }
    c, err := s.CampaignRepo.GetByID(ctx, id)
    if err != nil {
        return nil, err
    }
    c.Name = strings.TrimSpace(in.Name)
    c.Description = in.Description
    c.StartDate = in.StartDate
    c.EndDate = in.EndDate

    if err := s.CampaignRepo.Update(ctx, c); err != nil {
        return nil, fmt.Errorf("update campaign %d: %w", id, err)
    }
    return c, nil
}

func (s *CampaignService) ArchiveCampaign(ctx context.Context, id int) (*model.Campaign, error) {
    now := time.Now().UTC()
    return s.setArchived(ctx, id, true, &now)
}

func (s *CampaignService) UnarchiveCampaign(ctx context.Context, id int) (*model.Campaign, error) {
    return s.setArchived(ctx, id, false, nil)
}

func (s *CampaignService) setArchived(ctx context.Context, id int, archived bool, at *time.Time) (*model.Campaign, error) {
    c, err := s.CampaignRepo.GetByID(ctx, id)
    if err != nil {
        return nil, err
    }
    if err := s.CampaignRepo.SetArchived(ctx, id, archived, at); err != nil {
        return nil, err
    }
    c.Archived = archived
    c.ArchivedAt = at
    return c, nil
}

// DeleteCampaign removes the campaign. Its operations stay and lose the link.
func (s *CampaignService) DeleteCampaign(ctx context.Context, id int, confirmed bool) error {
    if !confirmed {
        return appErrors.ErrConfirmationRequired
    }
    if err := s.CampaignRepo.Delete(ctx, id); err != nil {
        return err
    }
    log.WithField("campaign_id", id).Info("campaign deleted")
    return nil
}
