package exports

import (
	"context"
	"encoding/json"
	"errors"
	"flyer-server/core"
	"flyer-server/flyer"
	"flyer-server/middleware"
	"flyer-server/sessions"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type (
	// SessionGetter resolves the live session an export is taken from.
	SessionGetter interface {
		Get(ctx context.Context, id string) (*sessions.Session, error)
	}

	CreateRequest struct {
		Name string `json:"name"`
	}

	CreateResponse struct {
		ID string `json:"id"`
	}
)

// SessionRoutes returns the routes nested under /api/sessions/{id}. auth may
// be nil.
func SessionRoutes(store core.ExportStore, reg SessionGetter, auth func(http.Handler) http.Handler) func(chi.Router) {
	return func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if auth != nil {
				r.Use(auth)
			}
			r.Post("/exports", HandleCreate(store, reg))
			r.Get("/exports", HandleList(store))
		})
	}
}

// Routes mounts the routes addressed by export id.
func Routes(r chi.Router, store core.ExportStore, auth func(http.Handler) http.Handler) {
	if auth != nil {
		r.Use(auth)
	}
	r.Get("/{exportId}", HandleGet(store))
	r.Delete("/{exportId}", HandleDelete(store))
}

// HandleCreate freezes the session's render tree. The request body is optional.
func HandleCreate(store core.ExportStore, reg SessionGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "id")
		s, err := reg.Get(r.Context(), sessionID)
		if err != nil {
			if errors.Is(err, sessions.ErrSessionNotFound) {
				http.Error(w, "Session not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to load session", http.StatusInternalServerError)
			return
		}

		var req CreateRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid request body", http.StatusBadRequest)
				return
			}
		}

		var tree flyer.RenderTree
		s.Do(func(doc *flyer.Document, _ *flyer.DragController) { tree = doc.Export() })
		data, err := json.Marshal(tree)
		if err != nil {
			logrus.WithField("session_id", sessionID).WithError(err).Error("Failed to encode render tree")
			http.Error(w, "Failed to create export", http.StatusInternalServerError)
			return
		}

		id, err := store.Create(r.Context(), &core.Export{
			SessionID: sessionID,
			OwnerID:   middleware.Subject(r.Context()),
			Name:      req.Name,
			Data:      data,
		})
		if err != nil {
			logrus.WithField("session_id", sessionID).WithError(err).Error("Failed to save export")
			http.Error(w, "Failed to create export", http.StatusInternalServerError)
			return
		}

		logrus.WithFields(logrus.Fields{
			"session_id": sessionID,
			"export_id":  id,
			"size":       len(data),
		}).Info("Export saved")
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, CreateResponse{ID: id})
	}
}

// HandleList lists a session's exports without their data. With auth on, only
// the caller's exports are listed.
func HandleList(store core.ExportStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "id")
		list, err := store.List(r.Context(), sessionID)
		if err != nil {
			logrus.WithField("session_id", sessionID).WithError(err).Error("Failed to list exports")
			http.Error(w, "Failed to list exports", http.StatusInternalServerError)
			return
		}

		owner := middleware.Subject(r.Context())
		out := make([]*core.Export, 0, len(list))
		for _, e := range list {
			if owner == "" || e.OwnerID == owner {
				out = append(out, e)
			}
		}
		render.JSON(w, r, out)
	}
}

func HandleGet(store core.ExportStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		export, ok := findOwned(w, r, store)
		if !ok {
			return
		}
		render.JSON(w, r, export)
	}
}

func HandleDelete(store core.ExportStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		export, ok := findOwned(w, r, store)
		if !ok {
			return
		}
		if err := store.Delete(r.Context(), export.ID); err != nil {
			writeStoreError(w, export.ID, err, "Failed to delete export")
			return
		}
		logrus.WithField("export_id", export.ID).Info("Export deleted")
		w.WriteHeader(http.StatusNoContent)
	}
}

// findOwned loads {exportId}. An export owned by someone else answers 404 so
// its existence is not revealed.
func findOwned(w http.ResponseWriter, r *http.Request, store core.ExportStore) (*core.Export, bool) {
	id := chi.URLParam(r, "exportId")
	export, err := store.FindID(r.Context(), id)
	if err != nil {
		writeStoreError(w, id, err, "Failed to retrieve export")
		return nil, false
	}
	if owner := middleware.Subject(r.Context()); owner != "" && export.OwnerID != owner {
		logrus.WithFields(logrus.Fields{"export_id": id, "subject": owner}).Warn("Export owned by another user")
		http.Error(w, "Export not found", http.StatusNotFound)
		return nil, false
	}
	return export, true
}

func writeStoreError(w http.ResponseWriter, id string, err error, msg string) {
	if errors.Is(err, core.ErrExportNotFound) {
		logrus.WithField("export_id", id).Warn("Export not found")
		http.Error(w, "Export not found", http.StatusNotFound)
		return
	}
	logrus.WithField("export_id", id).WithError(err).Error(msg)
	http.Error(w, msg, http.StatusInternalServerError)
}
