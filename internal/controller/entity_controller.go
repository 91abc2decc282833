package controller

import (
	"net/http"

	"github.com/unclebandit/opsboard-backend/internal/service"
)

type EntityController struct {
	Service *service.EntityService
}

type entityBody struct {
	Name string `json:"name"`
}

func (c *EntityController) List(w http.ResponseWriter, r *http.Request) {
	entities, err := c.Service.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": entities})
}

func (c *EntityController) Create(w http.ResponseWriter, r *http.Request) {
	var body entityBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	entity, err := c.Service.Create(r.Context(), body.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entity)
}

func (c *EntityController) Rename(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body entityBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	entity, err := c.Service.Rename(r.Context(), id, body.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entity)
}
