package documents

import (
	"flyer-server/prompt"

	"github.com/go-chi/chi/v5"
)

// Routes mounts the session API under the router it is given. Each nested
// function adds more routes below /{id}.
func Routes(r chi.Router, reg Registry, gen *prompt.Generator, nested ...func(chi.Router)) {
	r.Post("/", HandleCreate(reg))
	r.Get("/", HandleList(reg))
	r.Get("/filters", HandleFilters())

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", HandleGet(reg))
		r.Delete("/", HandleDelete(reg))
		r.Put("/template", HandleSetTemplate(reg))
		r.Put("/page-size", HandleSetPageSize(reg))
		r.Post("/page-size/form", HandleCustomPageSizeForm(reg))
		r.Put("/defaults", HandleSetDefaults(reg))
		r.Patch("/background", HandleUpdateBackground(reg))
		r.Post("/text", HandleSetText(reg))
		r.Put("/text-position", HandleSetTextPosition(reg))
		r.Delete("/text-position", HandleResetTextPosition(reg))
		r.Post("/prompt", HandlePrompt(reg, gen))

		r.Route("/layers", func(r chi.Router) {
			r.Post("/image", HandleAddImageLayer(reg))
			r.Patch("/image/{layerId}", HandleUpdateImageLayer(reg))
			r.Post("/image/{layerId}/form", HandleImageLayerForm(reg))
			r.Delete("/image/{layerId}", HandleRemoveImageLayer(reg))

			r.Post("/text", HandleAddTextLayer(reg))
			r.Patch("/text/{layerId}", HandleUpdateTextLayer(reg))
			r.Post("/text/{layerId}/form", HandleTextLayerForm(reg))
			r.Delete("/text/{layerId}", HandleRemoveTextLayer(reg))

			r.Post("/{layerId}/move", HandleMoveLayer(reg))
		})
		r.Get("/stacking", HandleStacking(reg))

		r.Route("/drag", func(r chi.Router) {
			r.Put("/mode", HandleDragMode(reg))
			r.Post("/press", HandleDragPress(reg))
			r.Post("/move", HandleDragMove(reg))
			r.Post("/release", HandleDragRelease(reg))
		})

		r.Get("/render", HandleRender(reg))

		for _, fn := range nested {
			fn(r)
		}
	})
}
