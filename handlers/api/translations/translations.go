package translations

import (
	"flyer-server/labels"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type Response struct {
	Language string            `json:"language"`
	Labels   map[string]string `json:"labels"`
}

func Routes(r chi.Router, l *labels.Labels) {
	r.Get("/", HandleLanguages(l))
	r.Get("/{lang}", HandleGet(l))
}

func HandleLanguages(l *labels.Labels) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, l.Languages())
	}
}

// HandleGet answers with the label table for {lang}. The special value "auto"
// uses the Accept-Language header instead.
func HandleGet(l *labels.Labels) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lang := chi.URLParam(r, "lang")
		if lang == "auto" {
			lang = r.Header.Get("Accept-Language")
		}
		tag, table := l.Table(lang)
		render.JSON(w, r, Response{Language: tag.String(), Labels: table})
	}
}
