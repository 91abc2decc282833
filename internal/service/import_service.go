package service

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	appErrors "github.com/unclebandit/opsboard-backend/internal/errors"
	"github.com/unclebandit/opsboard-backend/internal/importer"
	"github.com/unclebandit/opsboard-backend/internal/logging"
	"github.com/unclebandit/opsboard-backend/internal/metrics"
	"github.com/unclebandit/opsboard-backend/internal/model"
	"github.com/unclebandit/opsboard-backend/internal/repository"
)

type ImportService struct {
	Repo       repository.OperationRepositoryInterface
	EntityRepo repository.EntityRepositoryInterface
	Operations *OperationService
	Metrics    *metrics.Metrics
}

type ImportResult struct {
	BatchID    uuid.UUID          `json:"batch_id"`
	Imported   int                `json:"imported"`
	Skipped    int                `json:"skipped"`
	Operations []*model.Operation `json:"operations"`
}

// Import parses a CSV export and inserts every valid row as an operation of
// kind for the entity, all in one transaction. Nothing is written when the
// file is rejected.
func (s *ImportService) Import(ctx context.Context, entityID int, kind model.Kind, r io.Reader) (*ImportResult, error) {
	if model.DefaultPayload(kind) == nil {
		return nil, appErrors.NewValidation("kind", fmt.Sprintf("unknown operation kind %q", kind))
	}
	if _, err := s.EntityRepo.GetByID(ctx, entityID); err != nil {
		return nil, err
	}

	parsed, err := importer.Parse(r)
	if err != nil {
		return nil, err
	}

	ops := make([]*model.Operation, 0, len(parsed.Rows))
	for _, row := range parsed.Rows {
		op := NewOperation(entityID, kind, row.SendDate, row.Title)
		op.Theme = row.Theme
		op.Language = row.Language
		op.Brief = row.Brief
		if slider, ok := op.Payload.(*model.SliderPayload); ok {
			slider.Placement = row.Placement
		}
		ops = append(ops, op)
	}

	batch := uuid.New()
	if err := s.Repo.CreateBatch(ctx, ops); err != nil {
		logging.LogError("import_failed", err, log.Fields{"batch_id": batch, "entity_id": entityID})
		return nil, fmt.Errorf("import batch %s: %w", batch, err)
	}

	s.Metrics.Imported(len(ops), parsed.Skipped)
	logging.LogEvent("operations_imported", log.Fields{
		"batch_id":  batch,
		"entity_id": entityID,
		"kind":      kind,
		"imported":  len(ops),
		"skipped":   parsed.Skipped,
	})
	if s.Operations != nil {
		s.Operations.NotifyImported(entityID)
	}

	return &ImportResult{BatchID: batch, Imported: len(ops), Skipped: parsed.Skipped, Operations: ops}, nil
}
