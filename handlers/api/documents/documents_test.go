package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flyer-server/core"
	"flyer-server/flyer"
	"flyer-server/prompt"
	"flyer-server/sessions"
	"flyer-server/stores/memory"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newTestRouter(t *testing.T) (*chi.Mux, *sessions.Registry) {
	t.Helper()
	reg := sessions.NewRegistry(memory.NewStore())
	r := chi.NewRouter()
	r.Route("/api/sessions", func(r chi.Router) {
		Routes(r, reg, prompt.Default())
	})
	return r, reg
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func createSession(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/sessions/", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: status %d", rec.Code)
	}
	return decodeBody[CreateResponse](t, rec).ID
}

func TestCreateAndGet(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/sessions/", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Status code mismatch: got %d, want %d", rec.Code, http.StatusCreated)
	}
	created := decodeBody[CreateResponse](t, rec)
	if created.ID == "" || created.Document.PageSize != flyer.PageA4 {
		t.Errorf("create response = %+v", created)
	}

	rec = do(t, h, http.MethodGet, "/api/sessions/"+created.ID+"/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rec.Code)
	}
	if st := decodeBody[flyer.DocumentState](t, rec); st.Dimensions != (flyer.Size{Width: 595, Height: 842}) {
		t.Errorf("Dimensions = %v", st.Dimensions)
	}

	rec = do(t, h, http.MethodGet, "/api/sessions/", nil)
	if rooms := decodeBody[[]core.Room](t, rec); len(rooms) != 1 || rooms[0].ID != created.ID {
		t.Errorf("list = %+v", rooms)
	}
}

func TestUnknownSession(t *testing.T) {
	h, _ := newTestRouter(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/sessions/nope/"},
		{http.MethodDelete, "/api/sessions/nope/"},
		{http.MethodPost, "/api/sessions/nope/layers/text"},
		{http.MethodGet, "/api/sessions/nope/render"},
	} {
		if rec := do(t, h, tc.method, tc.path, nil); rec.Code != http.StatusNotFound {
			t.Errorf("%s %s = %d, want 404", tc.method, tc.path, rec.Code)
		}
	}
}

func TestDelete(t *testing.T) {
	h, reg := newTestRouter(t)
	id := createSession(t, h)

	if rec := do(t, h, http.MethodDelete, "/api/sessions/"+id+"/", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE status = %d", rec.Code)
	}
	if _, err := reg.Get(context.Background(), id); !errors.Is(err, sessions.ErrSessionNotFound) {
		t.Errorf("session still present: %v", err)
	}
}

func TestPageSize_SocialThenCustom(t *testing.T) {
	h, _ := newTestRouter(t)
	id := createSession(t, h)
	base := "/api/sessions/" + id

	do(t, h, http.MethodPut, base+"/page-size", PageSizeRequest{PageSize: "social"})
	rec := do(t, h, http.MethodPut, base+"/page-size", PageSizeRequest{PageSize: "custom"})
	st := decodeBody[flyer.DocumentState](t, rec)
	if st.Dimensions != (flyer.Size{Width: 1080, Height: 1080}) {
		t.Errorf("Dimensions = %v, want 1080x1080", st.Dimensions)
	}

	w := 300.0
	rec = do(t, h, http.MethodPut, base+"/page-size", PageSizeRequest{PageSize: "custom", Width: &w})
	if st := decodeBody[flyer.DocumentState](t, rec); st.Dimensions != (flyer.Size{Width: 300, Height: 1080}) {
		t.Errorf("Dimensions = %v, want 300x1080", st.Dimensions)
	}

	if rec := do(t, h, http.MethodPut, base+"/page-size", PageSizeRequest{PageSize: "tabloid"}); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown page size status = %d", rec.Code)
	}
	neg := -1.0
	if rec := do(t, h, http.MethodPut, base+"/page-size", PageSizeRequest{PageSize: "custom", Height: &neg}); rec.Code != http.StatusBadRequest {
		t.Errorf("negative height status = %d", rec.Code)
	}
}

func TestBadBodies(t *testing.T) {
	h, _ := newTestRouter(t)
	base := "/api/sessions/" + createSession(t, h)

	tests := []struct {
		method, path string
		body         any
	}{
		{http.MethodPut, "/template", "{not json"},
		{http.MethodPut, "/template", TemplateRequest{Template: "wedding"}},
		{http.MethodPut, "/defaults", map[string]string{"fontFamily": "comic"}},
		{http.MethodPut, "/defaults", map[string]string{"imagePosition": "middle"}},
		{http.MethodPatch, "/background", map[string]string{"style": "tile"}},
		{http.MethodPost, "/layers/image", AddImageRequest{ImageRef: "  "}},
		{http.MethodPost, "/layers/image", AddImageRequest{ImageRef: "data:image/png;base64,bm90IGFuIGltYWdl"}},
		{http.MethodPost, "/layers/x/move", MoveRequest{Direction: "sideways"}},
		{http.MethodPost, "/prompt", PromptRequest{Prompt: "  "}},
	}
	for _, tt := range tests {
		if rec := do(t, h, tt.method, base+tt.path, tt.body); rec.Code != http.StatusBadRequest {
			t.Errorf("%s %s %v = %d, want 400", tt.method, tt.path, tt.body, rec.Code)
		}
	}
}

func TestDefaults_AllOrNothing(t *testing.T) {
	h, _ := newTestRouter(t)
	base := "/api/sessions/" + createSession(t, h)

	rec := do(t, h, http.MethodPut, base+"/defaults", map[string]string{"textColor": "#ff0000", "fontFamily": "comic"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	st := decodeBody[flyer.DocumentState](t, do(t, h, http.MethodGet, base+"/", nil))
	if st.TextColor != "#000000" {
		t.Errorf("TextColor = %q, want unchanged", st.TextColor)
	}

	rec = do(t, h, http.MethodPut, base+"/defaults", map[string]string{"textColor": "#ff0000", "fontFamily": "serif", "imagePosition": "left"})
	st = decodeBody[flyer.DocumentState](t, rec)
	if st.TextColor != "#ff0000" || st.FontFamily != flyer.FontSerif || st.ImagePosition != flyer.ImageLeft {
		t.Errorf("defaults not applied: %+v", st)
	}
}

func TestLayers_AddUpdateRemove(t *testing.T) {
	h, _ := newTestRouter(t)
	base := "/api/sessions/" + createSession(t, h)

	w := 320.0
	rec := do(t, h, http.MethodPost, base+"/layers/image", AddImageRequest{ImageRef: "https://example.com/a.jpg", Width: &w})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add image status = %d", rec.Code)
	}
	img := decodeBody[flyer.ImageLayer](t, rec)
	if img.Size != (flyer.Size{Width: 320, Height: 200}) || img.ZIndex != 10 {
		t.Errorf("image layer = %+v", img)
	}

	rec = do(t, h, http.MethodPost, base+"/layers/text", nil)
	txt := decodeBody[flyer.TextLayer](t, rec)
	if txt.Text != flyer.DefaultPlaceholder || txt.ZIndex != 100 {
		t.Errorf("text layer = %+v", txt)
	}

	rec = do(t, h, http.MethodPatch, base+"/layers/text/"+txt.ID, map[string]any{"bold": true, "rotation": 450})
	st := decodeBody[flyer.DocumentState](t, rec)
	if l := st.TextLayers[0]; !l.Bold || l.Rotation != 90 || l.Text != flyer.DefaultPlaceholder {
		t.Errorf("patched text layer = %+v", l)
	}

	// Unknown layers are absorbed.
	rec = do(t, h, http.MethodPatch, base+"/layers/image/nonexistent", map[string]any{"opacity": 0.5})
	if rec.Code != http.StatusOK {
		t.Errorf("patch unknown layer status = %d, want 200", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, base+"/layers/text/nonexistent", nil); rec.Code != http.StatusOK {
		t.Errorf("delete unknown layer status = %d, want 200", rec.Code)
	}

	rec = do(t, h, http.MethodDelete, base+"/layers/image/"+img.ID, nil)
	if st := decodeBody[flyer.DocumentState](t, rec); len(st.ImageLayers) != 0 || len(st.TextLayers) != 1 {
		t.Errorf("after delete: %d image, %d text", len(st.ImageLayers), len(st.TextLayers))
	}
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values) flyer.DocumentState {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("form status = %d", rec.Code)
	}
	return decodeBody[flyer.DocumentState](t, rec)
}

func TestImageLayerForm(t *testing.T) {
	h, _ := newTestRouter(t)
	base := "/api/sessions/" + createSession(t, h)
	img := decodeBody[flyer.ImageLayer](t, do(t, h, http.MethodPost, base+"/layers/image", AddImageRequest{ImageRef: "a.png"}))
	form := base + "/layers/image/" + img.ID + "/form"

	st := postForm(t, h, form, url.Values{"x": {"40"}, "y": {"60"}})
	if l := st.ImageLayers[0]; l.Position != (flyer.Point{X: 40, Y: 60}) {
		t.Fatalf("Position = %v, want {40 60}", l.Position)
	}

	tests := []struct {
		name     string
		form     url.Values
		wantSize flyer.Size
		wantPos  flyer.Point
	}{
		{"unparseable x falls back to 0", url.Values{"x": {"abc"}}, flyer.Size{Width: 200, Height: 200}, flyer.Point{X: 0, Y: 60}},
		{"unparseable width is ignored", url.Values{"width": {"abc"}, "height": {"150"}}, flyer.Size{Width: 200, Height: 150}, flyer.Point{X: 0, Y: 60}},
		{"non-positive sizes are ignored", url.Values{"width": {"-5"}, "height": {"0"}}, flyer.Size{Width: 200, Height: 150}, flyer.Point{X: 0, Y: 60}},
		{"valid size applies", url.Values{"width": {"320"}, "y": {""}}, flyer.Size{Width: 320, Height: 150}, flyer.Point{X: 0, Y: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := postForm(t, h, form, tt.form).ImageLayers[0]
			if l.Size != tt.wantSize {
				t.Errorf("Size = %v, want %v", l.Size, tt.wantSize)
			}
			if l.Position != tt.wantPos {
				t.Errorf("Position = %v, want %v", l.Position, tt.wantPos)
			}
		})
	}

	st = postForm(t, h, form, url.Values{"opacity": {"abc"}, "filter": {"sepia"}})
	if l := st.ImageLayers[0]; l.Opacity != 1 || l.Filter != "sepia(100%)" {
		t.Errorf("opacity/filter = %v, %q", l.Opacity, l.Filter)
	}
}

func TestTextLayerForm(t *testing.T) {
	h, _ := newTestRouter(t)
	base := "/api/sessions/" + createSession(t, h)
	txt := decodeBody[flyer.TextLayer](t, do(t, h, http.MethodPost, base+"/layers/text", AddTextRequest{}))
	form := base + "/layers/text/" + txt.ID + "/form"

	st := postForm(t, h, form, url.Values{"fontSize": {""}, "width": {"240"}, "x": {"abc"}, "y": {"75"}})
	tl := st.TextLayers[0]
	if tl.FontSize != 16 || tl.Width == nil || *tl.Width != 240 {
		t.Errorf("text layer = %+v", tl)
	}
	if tl.Position != (flyer.Point{X: 0, Y: 75}) {
		t.Errorf("Position = %v, want {0 75}", tl.Position)
	}

	st = postForm(t, h, form, url.Values{"width": {"-10"}, "rotation": {"oops"}})
	if tl := st.TextLayers[0]; tl.Width == nil || *tl.Width != 240 || tl.Rotation != 0 {
		t.Errorf("invalid width or rotation applied: %+v", tl)
	}

	st = postForm(t, h, form, url.Values{"width": {""}})
	if st.TextLayers[0].Width != nil {
		t.Error("empty width did not clear the wrap width")
	}
}

func TestCustomPageSizeForm(t *testing.T) {
	h, _ := newTestRouter(t)
	base := "/api/sessions/" + createSession(t, h)
	do(t, h, http.MethodPut, base+"/page-size", PageSizeRequest{PageSize: "custom"})

	st := postForm(t, h, base+"/page-size/form", url.Values{"width": {"abc"}, "height": {"300"}})
	if st.Dimensions != (flyer.Size{Width: 100, Height: 300}) {
		t.Errorf("Dimensions = %v, want 100x300", st.Dimensions)
	}
	st = postForm(t, h, base+"/page-size/form", url.Values{"height": {"0"}})
	if st.Dimensions != (flyer.Size{Width: 100, Height: 100}) {
		t.Errorf("Dimensions = %v, want 100x100", st.Dimensions)
	}
}

func TestFilters(t *testing.T) {
	h, _ := newTestRouter(t)
	presets := decodeBody[[]flyer.FilterPreset](t, do(t, h, http.MethodGet, "/api/sessions/filters", nil))
	if len(presets) == 0 {
		t.Fatal("no filter presets")
	}

	base := "/api/sessions/" + createSession(t, h)
	rec := do(t, h, http.MethodPatch, base+"/background", map[string]string{"filter": "warm"})
	if st := decodeBody[flyer.DocumentState](t, rec); st.Background.Filter != "sepia(30%) saturate(140%)" {
		t.Errorf("background filter = %q", st.Background.Filter)
	}
}

func TestMoveLayer_SwapsImageLayers(t *testing.T) {
	h, _ := newTestRouter(t)
	base := "/api/sessions/" + createSession(t, h)
	l1 := decodeBody[flyer.ImageLayer](t, do(t, h, http.MethodPost, base+"/layers/image", AddImageRequest{ImageRef: "a"}))
	l2 := decodeBody[flyer.ImageLayer](t, do(t, h, http.MethodPost, base+"/layers/image", AddImageRequest{ImageRef: "b"}))

	rec := do(t, h, http.MethodPost, base+"/layers/"+l1.ID+"/move", MoveRequest{Direction: "up"})
	resp := decodeBody[MoveResponse](t, rec)
	if !resp.Moved {
		t.Fatal("move reported no change")
	}
	if len(resp.Stacking) != 2 || resp.Stacking[0].ID != l2.ID || resp.Stacking[0].ZIndex != 10 ||
		resp.Stacking[1].ID != l1.ID || resp.Stacking[1].ZIndex != 11 {
		t.Errorf("stacking = %+v", resp.Stacking)
	}

	rec = do(t, h, http.MethodPost, base+"/layers/"+l1.ID+"/move", MoveRequest{Direction: "up"})
	if decodeBody[MoveResponse](t, rec).Moved {
		t.Error("top layer moved further up")
	}
}

func TestLegacyTextAndPrompt(t *testing.T) {
	h, _ := newTestRouter(t)
	base := "/api/sessions/" + createSession(t, h)

	do(t, h, http.MethodPut, base+"/text-position", PositionRequest{X: 50, Y: 60})
	rec := do(t, h, http.MethodPost, base+"/text", TextRequest{Text: "A"})
	st := decodeBody[flyer.DocumentState](t, rec)
	if len(st.TextLayers) != 1 || st.TextLayers[0].Position != (flyer.Point{X: 50, Y: 60}) || st.TextLayers[0].ZIndex != 10 {
		t.Fatalf("legacy text layer = %+v", st.TextLayers)
	}

	rec = do(t, h, http.MethodPost, base+"/prompt", PromptRequest{Prompt: "Summer sale"})
	resp := decodeBody[PromptResponse](t, rec)
	if resp.Rule != "sale" || !strings.HasPrefix(resp.Text, "SPECIAL SALE EVENT") {
		t.Errorf("prompt response = %+v", resp)
	}
	if len(resp.Document.TextLayers) != 1 || resp.Document.TextLayers[0].Text != resp.Text {
		t.Errorf("generated text not written to the first layer: %+v", resp.Document.TextLayers)
	}
	if resp.Document.Prompt != "Summer sale" {
		t.Errorf("Prompt = %q", resp.Document.Prompt)
	}

	rec = do(t, h, http.MethodDelete, base+"/text-position", nil)
	if st := decodeBody[flyer.DocumentState](t, rec); st.TextPosition != nil {
		t.Error("text position not reset")
	}
}

func TestDragFlow(t *testing.T) {
	h, _ := newTestRouter(t)
	base := "/api/sessions/" + createSession(t, h)
	txt := decodeBody[flyer.TextLayer](t, do(t, h, http.MethodPost, base+"/layers/text", nil))
	half := 0.5

	// Drag mode starts off.
	rec := do(t, h, http.MethodPost, base+"/drag/press", sessions.Pointer{LayerID: txt.ID, ClientX: 10, ClientY: 10, Scale: &half})
	if decodeBody[PressResponse](t, rec).Accepted {
		t.Fatal("press accepted with drag mode off")
	}

	do(t, h, http.MethodPut, base+"/drag/mode", DragModeRequest{Enabled: true})
	rec = do(t, h, http.MethodPost, base+"/drag/press", sessions.Pointer{LayerID: txt.ID, ClientX: 10, ClientY: 10, Scale: &half})
	press := decodeBody[PressResponse](t, rec)
	if !press.Accepted || press.State.LayerID != txt.ID || press.State.GrabOffset != (flyer.Point{}) {
		t.Fatalf("press = %+v", press)
	}

	rec = do(t, h, http.MethodPost, base+"/drag/move", sessions.Pointer{ClientX: 5000, ClientY: 100, Scale: &half})
	move := decodeBody[MoveDragResponse](t, rec)
	if !move.Moved || move.Position == nil || *move.Position != (flyer.Point{X: 585, Y: 200}) {
		t.Errorf("move = %+v", move)
	}

	rec = do(t, h, http.MethodPost, base+"/drag/release", nil)
	if decodeBody[DragResponse](t, rec).State.Dragging {
		t.Error("still dragging after release")
	}

	for _, bad := range []float64{0, 1e-310} {
		scale := bad
		if rec := do(t, h, http.MethodPost, base+"/drag/press", sessions.Pointer{LayerID: txt.ID, ClientX: 100, ClientY: 100, Scale: &scale}); rec.Code != http.StatusBadRequest {
			t.Errorf("press with scale %v status = %d, want 400", bad, rec.Code)
		}
		if rec := do(t, h, http.MethodPost, base+"/drag/move", sessions.Pointer{ClientX: 200, ClientY: 200, Scale: &scale}); rec.Code != http.StatusBadRequest {
			t.Errorf("move with scale %v status = %d, want 400", bad, rec.Code)
		}
	}
	if rec := do(t, h, http.MethodGet, base+"/render", nil); rec.Code != http.StatusOK {
		t.Errorf("render after rejected gestures status = %d", rec.Code)
	}
}

func TestRender(t *testing.T) {
	h, _ := newTestRouter(t)
	base := "/api/sessions/" + createSession(t, h)
	do(t, h, http.MethodPost, base+"/layers/text", AddTextRequest{})
	do(t, h, http.MethodPost, base+"/layers/image", AddImageRequest{ImageRef: "a"})

	tree := decodeBody[flyer.RenderTree](t, do(t, h, http.MethodGet, base+"/render", nil))
	if len(tree.Layers) != 2 || tree.Layers[0].Kind != flyer.KindImage || tree.Layers[1].Kind != flyer.KindText {
		t.Errorf("render layers = %+v", tree.Layers)
	}
}
