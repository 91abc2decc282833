package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/opsboard-backend/internal/model"
	"github.com/unclebandit/opsboard-backend/internal/service"
)

// IdempotencyHeader carries the client's click id so a retried request is not copied twice.
const IdempotencyHeader = "Idempotency-Key"

type MessageController struct {
	Service *service.MessageService
}

func (c *MessageController) Copy(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := c.Service.Copy(r.Context(), service.CopyRequest{
		OperationID: id,
		Trigger:     model.Flag(chi.URLParam(r, "trigger")),
		ClickID:     r.Header.Get(IdempotencyHeader),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

func (c *MessageController) Copied(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	trigger := model.Flag(chi.URLParam(r, "trigger"))
	writeJSON(w, http.StatusOK, map[string]any{
		"operation_id": id,
		"trigger":      trigger,
		"copied":       c.Service.Copied(r.Context(), id, trigger),
	})
}

// Preview renders the active template without copying or logging it.
func (c *MessageController) Preview(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	tpl, rendered, err := c.Service.Preview(r.Context(), id, model.Flag(chi.URLParam(r, "trigger")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"template_id": tpl.ID,
		"rendered":    rendered,
	})
}
