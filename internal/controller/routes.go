package controller

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// Routes groups the controllers and plain handlers served by the API.
type Routes struct {
	Entities   *EntityController
	Operations *OperationController
	Campaigns  *CampaignController
	Templates  *TemplateController
	Messages   *MessageController
	Changes    http.Handler
	Health     http.Handler
	Metrics    http.Handler
}

func (rt *Routes) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	if rt.Health != nil {
		r.Method(http.MethodGet, "/health", rt.Health)
	}
	if rt.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", rt.Metrics)
	}

	r.Route("/entities", func(r chi.Router) {
		r.Get("/", rt.Entities.List)
		r.Post("/", rt.Entities.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Put("/", rt.Entities.Rename)
			r.Get("/operations", rt.Operations.List)
			r.Post("/operations", rt.Operations.Create)
			r.Post("/operations/import", rt.Operations.Import)
			if rt.Changes != nil {
				r.Method(http.MethodGet, "/operations/changes", rt.Changes)
			}
			r.Get("/stats", rt.Operations.Stats)
			r.Get("/campaigns", rt.Campaigns.ListCampaigns)
			r.Post("/campaigns", rt.Campaigns.CreateCampaign)
			r.Get("/templates", rt.Templates.List)
			r.Post("/templates", rt.Templates.Create)
		})
	})

	r.Put("/templates/{id}/active", rt.Templates.SetActive)

	r.Route("/operations/{id}", func(r chi.Router) {
		r.Get("/", rt.Operations.Get)
		r.Patch("/", rt.Operations.Update)
		r.Delete("/", rt.Operations.Delete)
		r.Put("/flags/{flag}", rt.Operations.SetFlag)
		r.Post("/products", rt.Operations.AddProduct)
		r.Delete("/products/{index}", rt.Operations.RemoveProduct)
		r.Post("/archive", rt.Operations.Archive)
		r.Post("/unarchive", rt.Operations.Unarchive)
		r.Post("/messages/{trigger}/copy", rt.Messages.Copy)
		r.Get("/messages/{trigger}/copied", rt.Messages.Copied)
		r.Get("/messages/{trigger}/preview", rt.Messages.Preview)
	})

	r.Route("/campaigns/{id}", func(r chi.Router) {
		r.Get("/", rt.Campaigns.GetCampaignDetails)
		r.Put("/", rt.Campaigns.UpdateCampaign)
		r.Delete("/", rt.Campaigns.DeleteCampaign)
		r.Post("/archive", rt.Campaigns.ArchiveCampaign)
		r.Post("/unarchive", rt.Campaigns.UnarchiveCampaign)
	})

	r.Get("/calendar", rt.Operations.Calendar)
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.WithFields(log.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("request")
	})
}
