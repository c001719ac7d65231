package documents

import (
	"errors"
	"flyer-server/flyer"
	"flyer-server/prompt"
	"flyer-server/sessions"
	"net/http"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type (
	DragModeRequest struct {
		Enabled bool `json:"enabled"`
	}

	DragResponse struct {
		Enabled bool            `json:"enabled"`
		State   flyer.DragState `json:"state"`
	}

	PressResponse struct {
		Accepted bool            `json:"accepted"`
		State    flyer.DragState `json:"state"`
	}

	MoveDragResponse struct {
		Moved    bool            `json:"moved"`
		Position *flyer.Point    `json:"position,omitempty"`
		State    flyer.DragState `json:"state"`
	}

	PromptRequest struct {
		Prompt string `json:"prompt"`
	}

	PromptResponse struct {
		Text     string              `json:"text"`
		Rule     string              `json:"rule"`
		Document flyer.DocumentState `json:"document"`
	}
)

func HandleDragMode(reg Registry) http.HandlerFunc {
	return withSession(reg, func(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
		var req DragModeRequest
		if !decode(w, r, &req) {
			return
		}
		s.SetDragMode(req.Enabled)
		enabled, state := s.DragState()
		render.JSON(w, r, DragResponse{Enabled: enabled, State: state})
	})
}

func HandleDragPress(reg Registry) http.HandlerFunc {
	return withSession(reg, func(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
		var p sessions.Pointer
		if !decode(w, r, &p) {
			return
		}
		ok, state, err := s.Press(p)
		if err != nil {
			badRequest(w, err)
			return
		}
		render.JSON(w, r, PressResponse{Accepted: ok, State: state})
	})
}

func HandleDragMove(reg Registry) http.HandlerFunc {
	return withSession(reg, func(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
		var p sessions.Pointer
		if !decode(w, r, &p) {
			return
		}
		moved, err := s.Move(p)
		if err != nil {
			badRequest(w, err)
			return
		}
		_, state := s.DragState()
		resp := MoveDragResponse{State: state}
		if moved != nil {
			resp.Moved = true
			resp.Position = &moved.Position
			logrus.WithFields(logrus.Fields{
				"session_id": s.ID,
				"layer_id":   moved.LayerID,
			}).Debug("Layer dragged")
		}
		render.JSON(w, r, resp)
	})
}

func HandleDragRelease(reg Registry) http.HandlerFunc {
	return withSession(reg, func(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
		state := s.Release()
		enabled, _ := s.DragState()
		render.JSON(w, r, DragResponse{Enabled: enabled, State: state})
	})
}

// HandlePrompt stores the prompt, generates starter copy from it and writes the
// copy through the single-text path.
func HandlePrompt(reg Registry, gen *prompt.Generator) http.HandlerFunc {
	return withSession(reg, func(w http.ResponseWriter, r *http.Request, s *sessions.Session) {
		var req PromptRequest
		if !decode(w, r, &req) {
			return
		}
		text, rule, err := gen.Generate(req.Prompt)
		if err != nil {
			if errors.Is(err, prompt.ErrEmptyPrompt) {
				badRequest(w, err)
				return
			}
			logrus.WithField("session_id", s.ID).WithError(err).Error("Failed to generate text")
			http.Error(w, "Failed to generate text", http.StatusInternalServerError)
			return
		}

		s.Do(func(doc *flyer.Document, _ *flyer.DragController) {
			doc.SetPrompt(req.Prompt)
			doc.SetText(text)
		})
		logrus.WithFields(logrus.Fields{"session_id": s.ID, "rule": rule}).Info("Generated text from prompt")
		render.JSON(w, r, PromptResponse{Text: text, Rule: rule, Document: s.State()})
	})
}
