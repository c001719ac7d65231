package documents

import (
	"flyer-server/flyer"
	"flyer-server/imageref"
	"flyer-server/sessions"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type (
	AddImageRequest struct {
		ImageRef string   `json:"imageRef"`
		Width    *float64 `json:"width,omitempty"`
		Height   *float64 `json:"height,omitempty"`
	}

	AddTextRequest struct {
		Text *string `json:"text,omitempty"`
	}

	MoveRequest struct {
		Direction string `json:"direction"`
	}

	MoveResponse struct {
		Moved    bool               `json:"moved"`
		Stacking []flyer.StackEntry `json:"stacking"`
	}
)

// validateImageRef accepts remote references as given and data URIs only when
// they decode to an image.
func validateImageRef(ref string) error {
	_, _, err := imageref.Validate(ref)
	return err
}

func HandleAddImageLayer(reg Registry) http.HandlerFunc {
	return withSession(reg, func(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
		var req AddImageRequest
		if !decode(w, r, &req) {
			return
		}
		if err := validateImageRef(req.ImageRef); err != nil {
			badRequest(w, err)
			return
		}

		var layer flyer.ImageLayer
		s.Do(func(doc *flyer.Document, _ *flyer.DragController) {
			layer = doc.AddImageLayer(strings.TrimSpace(req.ImageRef))
			if req.Width == nil && req.Height == nil {
				return
			}
			size := layer.Size
			if req.Width != nil && *req.Width > 0 {
				size.Width = *req.Width
			}
			if req.Height != nil && *req.Height > 0 {
				size.Height = *req.Height
			}
			doc.UpdateImageLayer(layer.ID, flyer.ImagePatch{Size: &size})
			layer, _ = doc.ImageLayer(layer.ID)
		})

		logrus.WithFields(logrus.Fields{"session_id": s.ID, "layer_id": layer.ID}).Info("Image layer added")
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, layer)
	})
}

// HandleUpdateImageLayer merges a patch. An unknown layer id leaves the
// document as it was and still answers 200.
func HandleUpdateImageLayer(reg Registry) http.HandlerFunc {
	return withSession(reg, func(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
		var patch flyer.ImagePatch
		if !decode(w, r, &patch) {
			return
		}
		if patch.ImageRef != nil {
			if err := validateImageRef(*patch.ImageRef); err != nil {
				badRequest(w, err)
				return
			}
		}
		if patch.Filter != nil {
			filter := flyer.ResolveFilter(*patch.Filter)
			patch.Filter = &filter
		}
		applyImagePatch(s, chi.URLParam(r, "layerId"), patch)
		respondState(w, r, s)
	})
}

// HandleImageLayerForm takes raw form values. Coordinates that do not parse
// fall back to flyer.PositionFallback. Sizes and opacity that do not parse, and
// sizes that are not positive, are ignored. The filter field takes a preset name
// or a raw directive.
func HandleImageLayerForm(reg Registry) http.HandlerFunc {
	return withSession(reg, func(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}
		layerID := chi.URLParam(r, "layerId")

		var patch flyer.ImagePatch
		s.Do(func(doc *flyer.Document, _ *flyer.DragController) {
			l, ok := doc.ImageLayer(layerID)
			if !ok {
				return
			}
			size, pos := l.Size, l.Position
			if hasW, hasH := formPositive(r, "width", &size.Width), formPositive(r, "height", &size.Height); hasW || hasH {
				patch.Size = &size
			}
			if hasX, hasY := formValue(r, "x", &pos.X, flyer.PositionFallback), formValue(r, "y", &pos.Y, flyer.PositionFallback); hasX || hasY {
				patch.Position = &pos
			}
			var opacity float64
			if formStrict(r, "opacity", &opacity) {
				patch.Opacity = &opacity
			}
			if r.Form.Has("filter") {
				filter := flyer.ResolveFilter(r.Form.Get("filter"))
				patch.Filter = &filter
			}
			doc.UpdateImageLayer(layerID, patch)
		})
		respondState(w, r, s)
	})
}

func HandleRemoveImageLayer(reg Registry) http.HandlerFunc {
	return withSession(reg, func(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
		layerID := chi.URLParam(r, "layerId")
		var removed bool
		s.Do(func(doc *flyer.Document, _ *flyer.DragController) { removed = doc.RemoveImageLayer(layerID) })
		logLayerChange(s.ID, layerID, removed, "Image layer removed")
		respondState(w, r, s)
	})
}

func HandleAddTextLayer(reg Registry) http.HandlerFunc {
	return withSession(reg, func(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
		var req AddTextRequest
		if r.ContentLength != 0 && !decode(w, r, &req) {
			return
		}

		var layer flyer.TextLayer
		s.Do(func(doc *flyer.Document, _ *flyer.DragController) {
			if req.Text == nil {
				layer = doc.AddDefaultTextLayer()
				return
			}
			layer = doc.AddTextLayer(*req.Text)
		})

		logrus.WithFields(logrus.Fields{"session_id": s.ID, "layer_id": layer.ID}).Info("Text layer added")
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, layer)
	})
}

func HandleUpdateTextLayer(reg Registry) http.HandlerFunc {
	return withSession(reg, func(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
		var patch flyer.TextPatch
		if !decode(w, r, &patch) {
			return
		}
		if patch.FontFamily != nil {
			if _, err := flyer.ParseFontFamily(string(*patch.FontFamily)); err != nil {
				badRequest(w, err)
				return
			}
		}
		applyTextPatch(s, chi.URLParam(r, "layerId"), patch)
		respondState(w, r, s)
	})
}

// HandleTextLayerForm is HandleImageLayerForm for text layers. An empty width
// field removes the wrap width; a width that is not a positive number is ignored.
func HandleTextLayerForm(reg Registry) http.HandlerFunc {
	return withSession(reg, func(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}
		layerID := chi.URLParam(r, "layerId")

		var patch flyer.TextPatch
		s.Do(func(doc *flyer.Document, _ *flyer.DragController) {
			l, ok := doc.TextLayer(layerID)
			if !ok {
				return
			}
			pos := l.Position
			if hasX, hasY := formValue(r, "x", &pos.X, flyer.PositionFallback), formValue(r, "y", &pos.Y, flyer.PositionFallback); hasX || hasY {
				patch.Position = &pos
			}
			var fontSize, rotation, opacity, width float64
			if formStrict(r, "fontSize", &fontSize) {
				patch.FontSize = &fontSize
			}
			if formStrict(r, "rotation", &rotation) {
				patch.Rotation = &rotation
			}
			if formStrict(r, "opacity", &opacity) {
				patch.Opacity = &opacity
			}
			switch {
			case r.Form.Has("width") && strings.TrimSpace(r.Form.Get("width")) == "":
				patch.ClearWidth = true
			case formPositive(r, "width", &width):
				patch.Width = &width
			}
			doc.UpdateTextLayer(layerID, patch)
		})
		respondState(w, r, s)
	})
}

func HandleRemoveTextLayer(reg Registry) http.HandlerFunc {
	return withSession(reg, func(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
		layerID := chi.URLParam(r, "layerId")
		var removed bool
		s.Do(func(doc *flyer.Document, _ *flyer.DragController) { removed = doc.RemoveTextLayer(layerID) })
		logLayerChange(s.ID, layerID, removed, "Text layer removed")
		respondState(w, r, s)
	})
}

func HandleMoveLayer(reg Registry) http.HandlerFunc {
	return withSession(reg, func(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
		var req MoveRequest
		if !decode(w, r, &req) {
			return
		}
		dir, err := flyer.ParseDirection(req.Direction)
		if err != nil {
			badRequest(w, err)
			return
		}

		layerID := chi.URLParam(r, "layerId")
		var resp MoveResponse
		s.Do(func(doc *flyer.Document, _ *flyer.DragController) {
			resp.Moved = doc.MoveLayer(layerID, dir)
			resp.Stacking = doc.Stacking()
		})
		logLayerChange(s.ID, layerID, resp.Moved, "Layer restacked")
		render.JSON(w, r, resp)
	})
}

func HandleStacking(reg Registry) http.HandlerFunc {
	return withSession(reg, func(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
		var stack []flyer.StackEntry
		s.Do(func(doc *flyer.Document, _ *flyer.DragController) { stack = doc.Stacking() })
		render.JSON(w, r, stack)
	})
}

func applyImagePatch(s *sessions.Session, layerID string, patch flyer.ImagePatch) {
	var found bool
	s.Do(func(doc *flyer.Document, _ *flyer.DragController) { found = doc.UpdateImageLayer(layerID, patch) })
	logLayerChange(s.ID, layerID, found, "Image layer updated")
}

func applyTextPatch(s *sessions.Session, layerID string, patch flyer.TextPatch) {
	var found bool
	s.Do(func(doc *flyer.Document, _ *flyer.DragController) { found = doc.UpdateTextLayer(layerID, patch) })
	logLayerChange(s.ID, layerID, found, "Text layer updated")
}

// formValue reports whether the field was posted and, if so, stores its numeric
// value in dst, or fallback when it does not parse.
func formValue(r *http.Request, field string, dst *float64, fallback float64) bool {
	if !r.Form.Has(field) {
		return false
	}
	*dst = flyer.ParseNumber(r.Form.Get(field), fallback)
	return true
}

// formStrict is formValue without a fallback: input that does not parse is
// treated as absent.
func formStrict(r *http.Request, field string, dst *float64) bool {
	v, ok := flyer.LookupNumber(r.Form.Get(field))
	if !ok {
		return false
	}
	*dst = v
	return true
}

func formPositive(r *http.Request, field string, dst *float64) bool {
	var v float64
	if !formStrict(r, field, &v) || v <= 0 {
		return false
	}
	*dst = v
	return true
}

func logLayerChange(sessionID, layerID string, changed bool, msg string) {
	log := logrus.WithFields(logrus.Fields{"session_id": sessionID, "layer_id": layerID})
	if !changed {
		log.Debug("Layer unchanged")
		return
	}
	log.Info(msg)
}
