package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	appErrors "github.com/unclebandit/opsboard-backend/internal/errors"
	"github.com/unclebandit/opsboard-backend/internal/model"
)

type OperationRepositoryInterface interface {
	Create(ctx context.Context, op *model.Operation) error
	CreateBatch(ctx context.Context, ops []*model.Operation) error
	GetByID(ctx context.Context, id int) (*model.Operation, error)
	ListByEntityKind(ctx context.Context, entityID int, kind model.Kind) ([]*model.Operation, error)
	ListByDateRange(ctx context.Context, from, to model.Date) ([]*model.Operation, error)
	Update(ctx context.Context, op *model.Operation) error
	SetFlag(ctx context.Context, id int, flag model.Flag, value bool) error
	SetArchived(ctx context.Context, id int, archived bool, at *time.Time) error
	Delete(ctx context.Context, id int) error
	Stats(ctx context.Context, entityID int) (*model.OperationStats, error)
}

type OperationRepository struct {
	DB *sql.DB
}

const operationColumns = `id, entity_id, kind, send_date, title, theme, language, brief, campaign_id, products,
	creative_done, proof_sent_to_reviewer_a, proof_sent_to_reviewer_b, proof_validated, scheduled_in_delivery_system,
	archived, archived_at, payload, created_at, updated_at`

const insertOperation = `
	INSERT INTO operations (entity_id, kind, send_date, title, theme, language, brief, campaign_id, products, payload)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING id, created_at, updated_at
`

func scanRawOperation(row interface{ Scan(...any) error }) (model.RawOperation, error) {
	var raw model.RawOperation
	err := row.Scan(
		&raw.ID, &raw.EntityID, &raw.Kind, &raw.SendDate, &raw.Title, &raw.Theme, &raw.Language, &raw.Brief,
		&raw.CampaignID, &raw.Products,
		&raw.Checklist.CreativeDone, &raw.Checklist.ProofSentToReviewerA, &raw.Checklist.ProofSentToReviewerB,
		&raw.Checklist.ProofValidated, &raw.Checklist.Scheduled,
		&raw.Archived, &raw.ArchivedAt, &raw.Payload, &raw.CreatedAt, &raw.UpdatedAt,
	)
	return raw, err
}

// encodeJSONColumns returns products and payload as JSON text for jsonb columns
func encodeJSONColumns(op *model.Operation) (string, string, error) {
	products := op.Products
	if products == nil {
		products = []model.Product{}
	}
	p, err := json.Marshal(products)
	if err != nil {
		return "", "", err
	}
	payload := op.Payload
	if payload == nil {
		payload = model.DefaultPayload(op.Kind)
	}
	pl, err := json.Marshal(payload)
	if err != nil {
		return "", "", err
	}
	return string(p), string(pl), nil
}

func (r *OperationRepository) Create(ctx context.Context, op *model.Operation) error {
	products, payload, err := encodeJSONColumns(op)
	if err != nil {
		return err
	}
	return r.DB.QueryRowContext(ctx, insertOperation,
		op.EntityID, string(op.Kind), op.SendDate, op.Title, op.Theme, op.Language, op.Brief, op.CampaignID, products, payload,
	).Scan(&op.ID, &op.CreatedAt, &op.UpdatedAt)
}

// CreateBatch inserts all operations in one transaction, or none of them
func (r *OperationRepository) CreateBatch(ctx context.Context, ops []*model.Operation) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertOperation)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, op := range ops {
		products, payload, err := encodeJSONColumns(op)
		if err != nil {
			return err
		}
		err = stmt.QueryRowContext(ctx,
			op.EntityID, string(op.Kind), op.SendDate, op.Title, op.Theme, op.Language, op.Brief, op.CampaignID, products, payload,
		).Scan(&op.ID, &op.CreatedAt, &op.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}
	return tx.Commit()
}

func (r *OperationRepository) GetByID(ctx context.Context, id int) (*model.Operation, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+operationColumns+` FROM operations WHERE id=$1`, id)
	raw, err := scanRawOperation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("operation", id)
		}
		return nil, err
	}
	return model.ParseOperation(raw)
}

func (r *OperationRepository) ListByEntityKind(ctx context.Context, entityID int, kind model.Kind) ([]*model.Operation, error) {
	query := `SELECT ` + operationColumns + ` FROM operations WHERE entity_id=$1 AND kind=$2 ORDER BY send_date, id`
	return r.list(ctx, query, entityID, string(kind))
}

func (r *OperationRepository) ListByDateRange(ctx context.Context, from, to model.Date) ([]*model.Operation, error) {
	query := `SELECT ` + operationColumns + ` FROM operations WHERE archived=FALSE AND send_date BETWEEN $1 AND $2 ORDER BY send_date, id`
	return r.list(ctx, query, from, to)
}

// list skips rows that fail boundary parsing instead of failing the whole query
func (r *OperationRepository) list(ctx context.Context, query string, args ...any) ([]*model.Operation, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ops := []*model.Operation{}
	for rows.Next() {
		raw, err := scanRawOperation(rows)
		if err != nil {
			return nil, err
		}
		op, err := model.ParseOperation(raw)
		if err != nil {
			log.WithError(err).WithField("operation_id", raw.ID).Warn("skipping invalid operation row")
			continue
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

// Update writes the mutable fields; kind is never updated
func (r *OperationRepository) Update(ctx context.Context, op *model.Operation) error {
	products, payload, err := encodeJSONColumns(op)
	if err != nil {
		return err
	}
	query := `
		UPDATE operations
		SET send_date=$1, title=$2, theme=$3, language=$4, brief=$5, campaign_id=$6, products=$7, payload=$8, updated_at=NOW()
		WHERE id=$9
	`
	res, err := r.DB.ExecContext(ctx, query, op.SendDate, op.Title, op.Theme, op.Language, op.Brief, op.CampaignID, products, payload, op.ID)
	if err != nil {
		return err
	}
	return expectOneRow(res, "operation", op.ID)
}

func (r *OperationRepository) SetFlag(ctx context.Context, id int, flag model.Flag, value bool) error {
	if _, ok := model.ParseFlag(string(flag)); !ok {
		return appErrors.NewValidation("flag", fmt.Sprintf("unknown flag %q", flag))
	}
	// flag is whitelisted above and doubles as the column name
	query := fmt.Sprintf(`UPDATE operations SET %s=$1, updated_at=NOW() WHERE id=$2`, flag)
	res, err := r.DB.ExecContext(ctx, query, value, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "operation", id)
}

func (r *OperationRepository) SetArchived(ctx context.Context, id int, archived bool, at *time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE operations SET archived=$1, archived_at=$2, updated_at=NOW() WHERE id=$3`, archived, at, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "operation", id)
}

func (r *OperationRepository) Delete(ctx context.Context, id int) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM operations WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "operation", id)
}

func (r *OperationRepository) Stats(ctx context.Context, entityID int) (*model.OperationStats, error) {
	query := `
		SELECT kind, archived, COUNT(*),
			COUNT(*) FILTER (WHERE creative_done),
			COUNT(*) FILTER (WHERE proof_sent_to_reviewer_a),
			COUNT(*) FILTER (WHERE proof_sent_to_reviewer_b),
			COUNT(*) FILTER (WHERE proof_validated),
			COUNT(*) FILTER (WHERE scheduled_in_delivery_system)
		FROM operations
		WHERE entity_id = $1
		GROUP BY kind, archived
	`
	rows, err := r.DB.QueryContext(ctx, query, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := model.NewOperationStats(entityID)
	for rows.Next() {
		var kind string
		var archived bool
		var count int
		flagCounts := make([]int, len(model.Flags))
		dest := []any{&kind, &archived, &count}
		for i := range flagCounts {
			dest = append(dest, &flagCounts[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		stats.Total += count
		stats.ByKind[model.Kind(kind)] += count
		if archived {
			stats.Archived += count
			continue
		}
		for i, f := range model.Flags {
			stats.Flags[f] += flagCounts[i]
		}
	}
	return stats, rows.Err()
}

var _ OperationRepositoryInterface = (*OperationRepository)(nil)
