package api

import (
	"net/http"

	"formcraft/internal/observability"
	"formcraft/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Dependencies struct {
	Builder      *service.Builder
	AutoSaver    *service.AutoSaver
	Metrics      *observability.Metrics
	Log          *zap.Logger
	PublicOrigin string
}

func Routes(d Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestLogger(d.Log))
	if d.Metrics != nil {
		r.Use(d.Metrics.MetricsMiddleware)
	}

	// Builder session endpoints
	r.Route("/builder", func(r chi.Router) {
		r.Get("/", d.getState)
		r.Post("/form", d.createForm)
		r.Patch("/form", d.updateForm)
		r.Delete("/form", d.closeForm)
		r.Post("/open/{id}", d.openForm)

		r.Post("/fields", d.addField)
		r.Post("/fields/reorder", d.reorderFields)
		r.Patch("/fields/{fieldID}", d.updateField)
		r.Delete("/fields/{fieldID}", d.deleteField)

		r.Post("/steps", d.addStep)
		r.Patch("/steps/{stepID}", d.updateStep)
		r.Delete("/steps/{stepID}", d.deleteStep)
		r.Post("/steps/{stepID}/fields", d.placeField)
		r.Post("/multistep/toggle", d.toggleMultiStep)

		r.Post("/undo", d.undo)
		r.Post("/redo", d.redo)

		r.Put("/selection", d.selectField)
		r.Put("/preview", d.setPreviewMode)
		r.Put("/dragging", d.setDragging)
		r.Put("/theme", d.setTheme)

		r.Post("/save", d.saveForm)
		r.Get("/autosave", d.autosaveStatus)
		r.Post("/validate", d.validateStep)
		r.Post("/templates", d.saveTemplate)
		r.Post("/templates/{id}/load", d.loadTemplate)
	})

	// Stored forms and responses
	r.Get("/forms", d.listForms)
	r.Get("/forms/{id}", d.getForm)
	r.Post("/forms/{id}/responses", d.submitResponse)
	r.Get("/forms/{id}/responses", d.listResponses)
	r.Get("/forms/{id}/responses.csv", d.exportResponses)
	r.Get("/forms/{id}/analytics", d.analytics)

	r.Get("/templates", d.listTemplates)

	return r
}
