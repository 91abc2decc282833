package service

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/unclebandit/opsboard-backend/internal/model"
)

// AlertRepository defines the methods the worker needs
type AlertRepository interface {
	ListByEntityKind(ctx context.Context, entityID int, kind model.Kind) ([]*model.Operation, error)
}

// SendDateAlert is an operation whose send date is inside the alert window.
type SendDateAlert struct {
	Operation *model.Operation
	Days      int
}

// Worker re-checks an entity's send-date alerts on every change event
type Worker struct {
	Repo    AlertRepository
	JobChan <-chan model.OperationChange
	Notify  func(alert SendDateAlert)
	Window  int
	Today   func() model.Date
}

// Constructor
func NewWorker(repo AlertRepository, jobChan <-chan model.OperationChange, notify func(alert SendDateAlert)) *Worker {
	return &Worker{
		Repo:    repo,
		JobChan: jobChan,
		Notify:  notify,
		Window:  DefaultAlertWindowDays,
		Today:   model.Today,
	}
}

// Start begins processing jobs until the channel closes or ctx is done
func (w *Worker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-w.JobChan:
			if !ok {
				return
			}
			if _, err := w.Process(ctx, change); err != nil {
				log.WithError(err).WithField("entity_id", change.EntityID).Error("failed to check send-date alerts")
			}
		}
	}
}

// Process returns, and notifies, the active operations of the changed entity
// that are due within the window.
func (w *Worker) Process(ctx context.Context, change model.OperationChange) ([]SendDateAlert, error) {
	today := w.Today()
	var alerts []SendDateAlert
	for _, kind := range []model.Kind{model.KindEmail, model.KindSlider, model.KindSocial} {
		ops, err := w.Repo.ListByEntityKind(ctx, change.EntityID, kind)
		if err != nil {
			return alerts, err
		}
		for _, op := range ops {
			if op.Archived {
				continue
			}
			if a := op.AlertStatus(today, w.Window); a.Show {
				alert := SendDateAlert{Operation: op, Days: a.Days}
				alerts = append(alerts, alert)
				if w.Notify != nil {
					w.Notify(alert)
				}
			}
		}
	}
	return alerts, nil
}
