package flyer

import "math"

// LayerKind names the collection a layer lives in.
type LayerKind string

const (
	KindImage LayerKind = "image"
	KindText  LayerKind = "text"
)

// Z-index bands new layers start in, so fresh text sits above fresh images.
const (
	imageZBase = 10
	textZBase  = 100
	legacyZ    = 10
)

const (
	defaultImageSize   = 200.0
	defaultFontSize    = 16.0
	defaultTextOrigin  = 20.0
	textStaggerStep    = 40.0
	DefaultPlaceholder = "New Text"
)

type (
	ImageLayer struct {
		ID       string  `json:"id"`
		ImageRef string  `json:"image"`
		Position Point   `json:"position"`
		Size     Size    `json:"size"`
		Opacity  float64 `json:"opacity"`
		ZIndex   int     `json:"zIndex"`
		Filter   string  `json:"filter,omitempty"`
	}

	TextLayer struct {
		ID         string     `json:"id"`
		Text       string     `json:"text"`
		Position   Point      `json:"position"`
		Color      string     `json:"color"`
		FontFamily FontFamily `json:"fontFamily"`
		FontSize   float64    `json:"fontSize"`
		ZIndex     int        `json:"zIndex"`
		Opacity    float64    `json:"opacity"`
		Rotation   float64    `json:"rotation"`
		Bold       bool       `json:"bold"`
		Italic     bool       `json:"italic"`
		Width      *float64   `json:"width,omitempty"`
	}

	// ImagePatch carries only the fields a caller wants to change. Nil means
	// "leave as is".
	ImagePatch struct {
		ImageRef *string  `json:"image,omitempty"`
		Position *Point   `json:"position,omitempty"`
		Size     *Size    `json:"size,omitempty"`
		Opacity  *float64 `json:"opacity,omitempty"`
		ZIndex   *int     `json:"zIndex,omitempty"`
		Filter   *string  `json:"filter,omitempty"`
	}

	TextPatch struct {
		Text       *string     `json:"text,omitempty"`
		Position   *Point      `json:"position,omitempty"`
		Color      *string     `json:"color,omitempty"`
		FontFamily *FontFamily `json:"fontFamily,omitempty"`
		FontSize   *float64    `json:"fontSize,omitempty"`
		ZIndex     *int        `json:"zIndex,omitempty"`
		Opacity    *float64    `json:"opacity,omitempty"`
		Rotation   *float64    `json:"rotation,omitempty"`
		Bold       *bool       `json:"bold,omitempty"`
		Italic     *bool       `json:"italic,omitempty"`
		Width      *float64    `json:"width,omitempty"`
		// ClearWidth drops the width constraint. It wins over Width.
		ClearWidth bool `json:"clearWidth,omitempty"`
	}
)

func (l *ImageLayer) apply(p ImagePatch) {
	if p.ImageRef != nil {
		l.ImageRef = *p.ImageRef
	}
	if p.Position != nil {
		l.Position = *p.Position
	}
	if p.Size != nil {
		l.Size = *p.Size
	}
	if p.Opacity != nil {
		l.Opacity = clampUnit(*p.Opacity)
	}
	if p.ZIndex != nil {
		l.ZIndex = *p.ZIndex
	}
	if p.Filter != nil {
		l.Filter = *p.Filter
	}
}

func (l *TextLayer) apply(p TextPatch) {
	if p.Text != nil {
		l.Text = *p.Text
	}
	if p.Position != nil {
		l.Position = *p.Position
	}
	if p.Color != nil {
		l.Color = *p.Color
	}
	if p.FontFamily != nil {
		l.FontFamily = *p.FontFamily
	}
	if p.FontSize != nil && *p.FontSize > 0 {
		l.FontSize = *p.FontSize
	}
	if p.ZIndex != nil {
		l.ZIndex = *p.ZIndex
	}
	if p.Opacity != nil {
		l.Opacity = clampUnit(*p.Opacity)
	}
	if p.Rotation != nil {
		l.Rotation = normalizeDegrees(*p.Rotation)
	}
	if p.Bold != nil {
		l.Bold = *p.Bold
	}
	if p.Italic != nil {
		l.Italic = *p.Italic
	}
	switch {
	case p.ClearWidth:
		l.Width = nil
	case p.Width != nil:
		w := *p.Width
		l.Width = &w
	}
}

func (l TextLayer) clone() TextLayer {
	if l.Width != nil {
		w := *l.Width
		l.Width = &w
	}
	return l
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 1
	}
	return max(0, min(1, v))
}

// normalizeDegrees folds any angle into [0, 360).
func normalizeDegrees(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}
