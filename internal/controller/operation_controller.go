package controller

import (
	"context"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/unclebandit/opsboard-backend/internal/errors"
	"github.com/unclebandit/opsboard-backend/internal/filter"
	"github.com/unclebandit/opsboard-backend/internal/model"
	"github.com/unclebandit/opsboard-backend/internal/service"
)

const maxImportBytes = 10 << 20

type OperationController struct {
	Service *service.OperationService
	Imports *service.ImportService
}

// kindParam reads ?kind=, defaulting to email like the board's first tab.
func kindParam(r *http.Request) (model.Kind, error) {
	v := r.URL.Query().Get("kind")
	if v == "" {
		return model.KindEmail, nil
	}
	return model.ParseKind(v)
}

func (c *OperationController) List(w http.ResponseWriter, r *http.Request) {
	entityID, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	kind, err := kindParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	criteria, err := filter.FromQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	views, err := c.Service.List(r.Context(), entityID, kind, criteria)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": views})
}

func (c *OperationController) Create(w http.ResponseWriter, r *http.Request) {
	entityID, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body struct {
		Kind string `json:"kind"`
		service.OperationInput
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	kind, err := model.ParseKind(body.Kind)
	if err != nil {
		writeError(w, r, err)
		return
	}

	op, err := c.Service.Create(r.Context(), entityID, kind, body.OperationInput)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, op)
}

func (c *OperationController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	op, err := c.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, op)
}

func (c *OperationController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch service.OperationPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	op, err := c.Service.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, op)
}

func (c *OperationController) SetFlag(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	flag, ok := model.ParseFlag(chi.URLParam(r, "flag"))
	if !ok {
		writeError(w, r, appErrors.NewValidation("flag", "must be a checklist stage"))
		return
	}
	var body struct {
		Value *bool `json:"value"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if body.Value == nil {
		writeError(w, r, appErrors.NewValidation("value", "is required"))
		return
	}

	op, err := c.Service.SetFlag(r.Context(), id, flag, *body.Value)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, op)
}

func (c *OperationController) AddProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var product model.Product
	if err := decodeBody(r, &product); err != nil {
		writeError(w, r, err)
		return
	}
	op, err := c.Service.AddProduct(r.Context(), id, product)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, op)
}

func (c *OperationController) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	index, err := pathInt(r, "index")
	if err != nil {
		writeError(w, r, err)
		return
	}
	op, err := c.Service.RemoveProduct(r.Context(), id, index)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, op)
}

func (c *OperationController) Archive(w http.ResponseWriter, r *http.Request) {
	c.archive(w, r, c.Service.Archive)
}

func (c *OperationController) Unarchive(w http.ResponseWriter, r *http.Request) {
	c.archive(w, r, c.Service.Unarchive)
}

func (c *OperationController) archive(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id int) (*model.Operation, error)) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	op, err := apply(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, op)
}

func (c *OperationController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	confirmed, err := queryBool(r, "confirm")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := c.Service.Delete(r.Context(), id, confirmed); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *OperationController) Stats(w http.ResponseWriter, r *http.Request) {
	entityID, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	stats, err := c.Service.Stats(r.Context(), entityID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (c *OperationController) Calendar(w http.ResponseWriter, r *http.Request) {
	from, err := model.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, r, appErrors.NewValidation("from", err.Error()))
		return
	}
	to, err := model.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, r, appErrors.NewValidation("to", err.Error()))
		return
	}
	views, err := c.Service.Calendar(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": views})
}

// Import accepts either a multipart form with a "file" field or a raw CSV body.
func (c *OperationController) Import(w http.ResponseWriter, r *http.Request) {
	entityID, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	kind, err := kindParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	var src io.Reader = r.Body
	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); strings.HasPrefix(mediaType, "multipart/") {
		file, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, r, appErrors.NewValidation("file", "multipart field is required"))
			return
		}
		defer file.Close()
		src = file
	}

	result, err := c.Imports.Import(r.Context(), entityID, kind, src)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}
