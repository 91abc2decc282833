package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    appErrors "github.com/unclebandit/opsboard-backend/internal/errors"
    "github.com/unclebandit/opsboard-backend/internal/model"
)

type CampaignRepositoryInterface interface {
    Create(ctx context.Context, c *model.Campaign) error
    GetByID(ctx context.Context, id int) (*model.Campaign, error)
    ListByEntity(ctx context.Context, entityID int, archived bool) ([]*model.Campaign, error)
    Update(ctx context.Context, c *model.Campaign) error
    SetArchived(ctx context.Context, id int, archived bool, at *time.Time) error
    Delete(ctx context.Context, id int) error
}

type CampaignRepository struct {
    DB *sql.DB
}

const campaignColumns = `id, entity_id, name, description, start_date, end_date, archived, archived_at, created_at`

func scanCampaign(row interface{ Scan(...any) error }) (*model.Campaign, error) {
    var c model.Campaign
    var start, end model.Date
    if err := row.Scan(&c.ID, &c.EntityID, &c.Name, &c.Description, &start, &end, &c.Archived, &c.ArchivedAt, &c.CreatedAt); err != nil {
        return nil, err
    }
    if !start.IsZero() {
        c.StartDate = &start
    }
    if !end.IsZero() {
        c.EndDate = &end
    }
    return &c, nil
}

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
    query := `
        INSERT INTO campaigns (entity_id, name, description, start_date, end_date)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at
    `
    return r.DB.QueryRowContext(ctx, query, c.EntityID, c.Name, c.Description, dateArg(c.StartDate), dateArg(c.EndDate)).
        Scan(&c.ID, &c.CreatedAt)
}

func (r *CampaignRepository) GetByID(ctx context.Context, id int) (*model.Campaign, error) {
    row := r.DB.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id=$1`, id)
    c, err := scanCampaign(row)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, appErrors.NewNotFound("campaign", id)
        }
        return nil, err
    }
    return c, nil
}

func (r *CampaignRepository) ListByEntity(ctx context.Context, entityID int, archived bool) ([]*model.Campaign, error) {
    query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE entity_id=$1 AND archived=$2 ORDER BY start_date NULLS LAST, id`
    rows, err := r.DB.QueryContext(ctx, query, entityID, archived)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    campaigns := []*model.Campaign{}
    for rows.Next() {
        c, err := scanCampaign(rows)
        if err != nil {
            return nil, err
        }
        campaigns = append(campaigns, c)
    }
    return campaigns, rows.Err()
}

func (r *CampaignRepository) Update(ctx context.Context, c *model.Campaign) error {
    query := `
        UPDATE campaigns
        SET name=$1, description=$2, start_date=$3, end_date=$4
        WHERE id=$5
    `
    res, err := r.DB.ExecContext(ctx, query, c.Name, c.Description, dateArg(c.StartDate), dateArg(c.EndDate), c.ID)
    if err != nil {
        return err
    }
    return expectOneRow(res, "campaign", c.ID)
}

func (r *CampaignRepository) SetArchived(ctx context.Context, id int, archived bool, at *time.Time) error {
    res, err := r.DB.ExecContext(ctx, `UPDATE campaigns SET archived=$1, archived_at=$2 WHERE id=$3`, archived, at, id)
    if err != nil {
        return err
    }
    return expectOneRow(res, "campaign", id)
}

func (r *CampaignRepository) Delete(ctx context.Context, id int) error {
    res, err := r.DB.ExecContext(ctx, `DELETE FROM campaigns WHERE id=$1`, id)
    if err != nil {
        return err
    }
    return expectOneRow(res, "campaign", id)
}

// dateArg maps an optional date to a nullable query argument
func dateArg(d *model.Date) any {
    if d == nil || d.IsZero() {
        return nil
    }
    return d.String()
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
