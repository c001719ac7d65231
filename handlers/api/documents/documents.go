package documents

import (
	"context"
	"encoding/json"
	"errors"
	"flyer-server/core"
	"flyer-server/flyer"
	"flyer-server/sessions"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type (
	// Registry is the part of sessions.Registry the handlers use.
	Registry interface {
		Create(ctx context.Context) *sessions.Session
		Get(ctx context.Context, id string) (*sessions.Session, error)
		Delete(ctx context.Context, id string) error
		Rooms(ctx context.Context) ([]core.Room, error)
	}

	CreateResponse struct {
		ID       string              `json:"id"`
		Document flyer.DocumentState `json:"document"`
	}

	TemplateRequest struct {
		Template string `json:"template"`
	}

	PageSizeRequest struct {
		PageSize string   `json:"pageSize"`
		Width    *float64 `json:"width,omitempty"`
		Height   *float64 `json:"height,omitempty"`
	}

	DefaultsRequest struct {
		TextColor       *string `json:"textColor,omitempty"`
		BackgroundColor *string `json:"backgroundColor,omitempty"`
		FontFamily      *string `json:"fontFamily,omitempty"`
		ImagePosition   *string `json:"imagePosition,omitempty"`
		SelectedImage   *string `json:"selectedImage,omitempty"`
	}

	TextRequest struct {
		Text string `json:"text"`
	}

	PositionRequest struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
)

// sessionHandler is an http handler that runs against an existing session.
type sessionHandler func(w http.ResponseWriter, r *http.Request, s *sessions.Session)

// withSession resolves {id} and answers 404 when it names no live session.
func withSession(reg Registry, h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		s, err := reg.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, sessions.ErrSessionNotFound) {
				logrus.WithField("session_id", id).Warn("Session not found")
				http.Error(w, "Session not found", http.StatusNotFound)
				return
			}
			logrus.WithField("session_id", id).WithError(err).Error("Failed to load session")
			http.Error(w, "Failed to load session", http.StatusInternalServerError)
			return
		}
		h(w, r, s)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		logrus.WithField("error", err).Debug("Failed to decode request")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func badRequest(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), http.StatusBadRequest)
}

// respondState answers with the session's document after a mutation.
func respondState(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
	render.JSON(w, r, s.State())
}

func HandleCreate(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := reg.Create(r.Context())
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, CreateResponse{ID: s.ID, Document: s.State()})
	}
}

func HandleList(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms, err := reg.Rooms(r.Context())
		if err != nil {
			logrus.WithError(err).Error("Failed to list rooms")
			http.Error(w, "Failed to list sessions", http.StatusInternalServerError)
			return
		}
		render.JSON(w, r, rooms)
	}
}

func HandleGet(reg Registry) http.HandlerFunc {
	return withSession(reg, func(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
		respondState(w, r, s)
	})
}

func HandleDelete(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := reg.Delete(r.Context(), id); err != nil {
			if errors.Is(err, sessions.ErrSessionNotFound) {
				http.Error(w, "Session not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to delete session", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandleSetTemplate(reg Registry) http.HandlerFunc {
	return withSession(reg, func(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
		var req TemplateRequest
		if !decode(w, r, &req) {
			return
		}
		tmpl, err := flyer.ParseTemplate(req.Template)
		if err != nil {
			badRequest(w, err)
			return
		}
		s.Do(func(doc *flyer.Document, _ *flyer.DragController) { doc.SetTemplate(tmpl) })
		respondState(w, r, s)
	})
}

// HandleSetPageSize selects a preset. Width and height, when given, set the
// custom size after the preset has been applied.
func HandleSetPageSize(reg Registry) http.HandlerFunc {
	return withSession(reg, func(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
		var req PageSizeRequest
		if !decode(w, r, &req) {
			return
		}
		size, err := flyer.ParsePageSize(req.PageSize)
		if err != nil {
			badRequest(w, err)
			return
		}
		if (req.Width != nil && *req.Width <= 0) || (req.Height != nil && *req.Height <= 0) {
			http.Error(w, "width and height must be positive", http.StatusBadRequest)
			return
		}

		s.Do(func(doc *flyer.Document, _ *flyer.DragController) {
			doc.SetPageSize(size)
			if req.Width == nil && req.Height == nil {
				return
			}
			custom := doc.CustomPageSize()
			if req.Width != nil {
				custom.Width = *req.Width
			}
			if req.Height != nil {
				custom.Height = *req.Height
			}
			doc.SetCustomPageSize(custom)
		})
		respondState(w, r, s)
	})
}

// HandleCustomPageSizeForm sets the custom page size from raw form values. A
// dimension that does not parse, or is not positive, falls back to
// flyer.DefaultNumericFallback. The selected page size is left alone.
func HandleCustomPageSizeForm(reg Registry) http.HandlerFunc {
	return withSession(reg, func(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form", http.StatusBadRequest)
			return
		}
		s.Do(func(doc *flyer.Document, _ *flyer.DragController) {
			custom := doc.CustomPageSize()
			if r.Form.Has("width") {
				custom.Width = pageDimension(r.Form.Get("width"))
			}
			if r.Form.Has("height") {
				custom.Height = pageDimension(r.Form.Get("height"))
			}
			doc.SetCustomPageSize(custom)
		})
		respondState(w, r, s)
	})
}

func pageDimension(raw string) float64 {
	if v := flyer.ParseNumber(raw, flyer.DefaultNumericFallback); v > 0 {
		return v
	}
	return flyer.DefaultNumericFallback
}

func HandleFilters() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, flyer.FilterPresets())
	}
}

// HandleSetDefaults validates every field before applying any of them.
func HandleSetDefaults(reg Registry) http.HandlerFunc {
	return withSession(reg, func(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
		var req DefaultsRequest
		if !decode(w, r, &req) {
			return
		}

		var (
			font flyer.FontFamily
			pos  flyer.ImagePosition
			err  error
		)
		if req.FontFamily != nil {
			if font, err = flyer.ParseFontFamily(*req.FontFamily); err != nil {
				badRequest(w, err)
				return
			}
		}
		if req.ImagePosition != nil {
			if pos, err = flyer.ParseImagePosition(*req.ImagePosition); err != nil {
				badRequest(w, err)
				return
			}
		}
		if req.SelectedImage != nil {
			if err := validateImageRef(*req.SelectedImage); err != nil {
				badRequest(w, err)
				return
			}
		}

		s.Do(func(doc *flyer.Document, _ *flyer.DragController) {
			if req.TextColor != nil {
				doc.SetTextColor(*req.TextColor)
			}
			if req.BackgroundColor != nil {
				doc.SetBackgroundColor(*req.BackgroundColor)
			}
			if req.FontFamily != nil {
				doc.SetFontFamily(font)
			}
			if req.ImagePosition != nil {
				doc.SetImagePosition(pos)
			}
			if req.SelectedImage != nil {
				doc.SetSelectedImage(*req.SelectedImage)
			}
		})
		respondState(w, r, s)
	})
}

func HandleUpdateBackground(reg Registry) http.HandlerFunc {
	return withSession(reg, func(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
		var patch flyer.BackgroundPatch
		if !decode(w, r, &patch) {
			return
		}
		if patch.Style != nil {
			if _, err := flyer.ParseBackgroundStyle(string(*patch.Style)); err != nil {
				badRequest(w, err)
				return
			}
		}
		if patch.Filter != nil {
			filter := flyer.ResolveFilter(*patch.Filter)
			patch.Filter = &filter
		}
		// An empty reference clears the background image.
		if patch.ImageRef != nil && *patch.ImageRef != "" {
			if err := validateImageRef(*patch.ImageRef); err != nil {
				badRequest(w, err)
				return
			}
		}
		s.Do(func(doc *flyer.Document, _ *flyer.DragController) { doc.UpdateBackground(patch) })
		respondState(w, r, s)
	})
}

// HandleSetText is the single-text entry point kept for older clients.
func HandleSetText(reg Registry) http.HandlerFunc {
	return withSession(reg, func(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
		var req TextRequest
		if !decode(w, r, &req) {
			return
		}
		s.Do(func(doc *flyer.Document, _ *flyer.DragController) { doc.SetText(req.Text) })
		respondState(w, r, s)
	})
}

func HandleSetTextPosition(reg Registry) http.HandlerFunc {
	return withSession(reg, func(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
		var req PositionRequest
		if !decode(w, r, &req) {
			return
		}
		s.Do(func(doc *flyer.Document, _ *flyer.DragController) {
			doc.UpdateTextPosition(flyer.Point{X: req.X, Y: req.Y})
		})
		respondState(w, r, s)
	})
}

func HandleResetTextPosition(reg Registry) http.HandlerFunc {
	return withSession(reg, func(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
		s.Do(func(doc *flyer.Document, _ *flyer.DragController) { doc.ResetTextPosition() })
		respondState(w, r, s)
	})
}

func HandleRender(reg Registry) http.HandlerFunc {
	return withSession(reg, func(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
		var tree flyer.RenderTree
		s.Do(func(doc *flyer.Document, _ *flyer.DragController) { tree = doc.Export() })
		render.JSON(w, r, tree)
	})
}
