package controller

import (
	"net/http"

	appErrors "github.com/unclebandit/opsboard-backend/internal/errors"
	"github.com/unclebandit/opsboard-backend/internal/service"
)

type TemplateController struct {
	Service *service.TemplateService
}

func (c *TemplateController) List(w http.ResponseWriter, r *http.Request) {
	entityID, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	templates, err := c.Service.ListTemplates(r.Context(), entityID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": templates})
}

func (c *TemplateController) Create(w http.ResponseWriter, r *http.Request) {
	entityID, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in service.TemplateInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	tpl, err := c.Service.CreateTemplate(r.Context(), entityID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tpl)
}

// SetActive switches a template on or off. Activating one deactivates the
// entity's other templates for the same trigger.
func (c *TemplateController) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body struct {
		Active *bool `json:"active"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if body.Active == nil {
		writeError(w, r, appErrors.NewValidation("active", "is required"))
		return
	}
	tpl, err := c.Service.SetActive(r.Context(), id, *body.Active)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}
