package flyer

import (
	"slices"

	"github.com/oklog/ulid/v2"
)

// IDGenerator returns a fresh id for a layer of the given kind. Ids only need to
// be unique inside their own collection.
type IDGenerator func(kind LayerKind) string

// Option configures a Document at construction time.
type Option func(*Document)

// WithIDGenerator swaps the default ulid-based layer ids.
func WithIDGenerator(gen IDGenerator) Option {
	return func(d *Document) {
		if gen != nil {
			d.newID = gen
		}
	}
}

// Document is the whole poster: page setup, background, global style defaults
// and the two layer collections in insertion order.
type Document struct {
	template       Template
	prompt         string
	selectedImage  string
	imagePosition  ImagePosition
	textPosition   *Point
	textColor      string
	bgColor        string
	fontFamily     FontFamily
	pageSize       PageSize
	customPageSize Size
	background     Background
	imageLayers    []ImageLayer
	textLayers     []TextLayer

	newID IDGenerator
}

// DocumentState is a detached copy of everything a Document holds.
type DocumentState struct {
	Template        Template      `json:"template"`
	Prompt          string        `json:"prompt"`
	SelectedImage   string        `json:"selectedImage"`
	ImagePosition   ImagePosition `json:"imagePosition"`
	TextPosition    *Point        `json:"textPosition"`
	TextColor       string        `json:"textColor"`
	BackgroundColor string        `json:"backgroundColor"`
	FontFamily      FontFamily    `json:"fontFamily"`
	PageSize        PageSize      `json:"pageSize"`
	CustomPageSize  Size          `json:"customPageSize"`
	Dimensions      Size          `json:"dimensions"`
	Background      Background    `json:"background"`
	ImageLayers     []ImageLayer  `json:"imageLayers"`
	TextLayers      []TextLayer   `json:"textLayers"`
}

// NewDocument returns a document with the startup defaults: business template,
// A4 page, black sans text on white, no layers.
func NewDocument(opts ...Option) *Document {
	d := &Document{
		template:       TemplateBusiness,
		selectedImage:  TemplateBusiness.DefaultImage(),
		imagePosition:  ImageTop,
		textColor:      "#000000",
		bgColor:        "#ffffff",
		fontFamily:     FontSans,
		pageSize:       PageA4,
		customPageSize: pageSizeDimensions[PageCustom],
		background:     defaultBackground(),
		imageLayers:    []ImageLayer{},
		textLayers:     []TextLayer{},
		newID:          defaultID,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func defaultID(kind LayerKind) string {
	if kind == KindText {
		return "text-" + ulid.Make().String()
	}
	return "layer-" + ulid.Make().String()
}

// SetTemplate switches the template and replaces the selected image with the
// template's default, discarding whatever was selected before.
func (d *Document) SetTemplate(t Template) {
	d.template = t
	d.selectedImage = t.DefaultImage()
}

func (d *Document) SetPrompt(prompt string) { d.prompt = prompt }

func (d *Document) SetSelectedImage(ref string) { d.selectedImage = ref }

func (d *Document) SetTextColor(color string) { d.textColor = color }

func (d *Document) SetBackgroundColor(color string) { d.bgColor = color }

func (d *Document) SetFontFamily(f FontFamily) { d.fontFamily = f }

func (d *Document) SetImagePosition(p ImagePosition) { d.imagePosition = p }

// SetPageSize selects a preset. For any preset other than custom the custom size
// is overwritten with the preset's dimensions, so a later switch to custom starts
// from the page the user was just looking at.
func (d *Document) SetPageSize(p PageSize) {
	d.pageSize = p
	if p == PageCustom {
		return
	}
	if dims, ok := p.Dimensions(); ok {
		d.customPageSize = dims
	}
}

func (d *Document) SetCustomPageSize(s Size) { d.customPageSize = s }

func (d *Document) PageSize() PageSize { return d.pageSize }

func (d *Document) CustomPageSize() Size { return d.customPageSize }

// Dimensions is the size of the page currently in effect.
func (d *Document) Dimensions() Size {
	if d.pageSize == PageCustom {
		return d.customPageSize
	}
	if dims, ok := d.pageSize.Dimensions(); ok {
		return dims
	}
	return d.customPageSize
}

func (d *Document) Background() Background { return d.background }

func (d *Document) UpdateBackground(p BackgroundPatch) { d.background.apply(p) }

// AddImageLayer appends an image layer and returns a copy of it. The reference is
// stored as given.
func (d *Document) AddImageLayer(ref string) ImageLayer {
	l := ImageLayer{
		ID:       d.newID(KindImage),
		ImageRef: ref,
		Size:     Size{Width: defaultImageSize, Height: defaultImageSize},
		Opacity:  1,
		ZIndex:   imageZBase + len(d.imageLayers),
	}
	d.imageLayers = append(d.imageLayers, l)
	return l
}

// AddTextLayer appends a text layer styled from the global defaults. Each new
// layer starts 40 units below the previous one.
func (d *Document) AddTextLayer(text string) TextLayer {
	n := len(d.textLayers)
	l := TextLayer{
		ID:         d.newID(KindText),
		Text:       text,
		Position:   Point{X: defaultTextOrigin, Y: defaultTextOrigin + float64(n)*textStaggerStep},
		Color:      d.textColor,
		FontFamily: d.fontFamily,
		FontSize:   defaultFontSize,
		ZIndex:     textZBase + n,
		Opacity:    1,
	}
	d.textLayers = append(d.textLayers, l)
	return l.clone()
}

// AddDefaultTextLayer adds a layer holding the placeholder text.
func (d *Document) AddDefaultTextLayer() TextLayer {
	return d.AddTextLayer(DefaultPlaceholder)
}

// UpdateImageLayer merges p into the layer with the given id. An unknown id is
// not an error: a removal may have raced the update. The result reports whether
// a layer was found.
func (d *Document) UpdateImageLayer(id string, p ImagePatch) bool {
	i := d.imageIndex(id)
	if i < 0 {
		return false
	}
	d.imageLayers[i].apply(p)
	return true
}

// UpdateTextLayer is UpdateImageLayer for text layers.
func (d *Document) UpdateTextLayer(id string, p TextPatch) bool {
	i := d.textIndex(id)
	if i < 0 {
		return false
	}
	d.textLayers[i].apply(p)
	return true
}

// RemoveImageLayer drops the layer. Other layers keep their z-index.
func (d *Document) RemoveImageLayer(id string) bool {
	i := d.imageIndex(id)
	if i < 0 {
		return false
	}
	d.imageLayers = slices.Delete(d.imageLayers, i, i+1)
	return true
}

func (d *Document) RemoveTextLayer(id string) bool {
	i := d.textIndex(id)
	if i < 0 {
		return false
	}
	d.textLayers = slices.Delete(d.textLayers, i, i+1)
	return true
}

// SetText bridges the single-text model: with no text layers it creates one from
// the global defaults, otherwise it rewrites the text of the oldest layer only.
func (d *Document) SetText(text string) {
	if len(d.textLayers) > 0 {
		d.textLayers[0].Text = text
		return
	}
	pos := Point{X: defaultTextOrigin, Y: defaultTextOrigin}
	if d.textPosition != nil {
		pos = *d.textPosition
	}
	d.textLayers = append(d.textLayers, TextLayer{
		ID:         d.newID(KindText),
		Text:       text,
		Position:   pos,
		Color:      d.textColor,
		FontFamily: d.fontFamily,
		FontSize:   defaultFontSize,
		ZIndex:     legacyZ,
		Opacity:    1,
	})
}

// UpdateTextPosition records the legacy free text position, moves the oldest text
// layer there if one exists and switches the legacy image to background mode.
func (d *Document) UpdateTextPosition(p Point) {
	if len(d.textLayers) > 0 {
		d.textLayers[0].Position = p
	}
	d.textPosition = &p
	d.imagePosition = ImageBackground
}

func (d *Document) ResetTextPosition() { d.textPosition = nil }

func (d *Document) ImageLayer(id string) (ImageLayer, bool) {
	i := d.imageIndex(id)
	if i < 0 {
		return ImageLayer{}, false
	}
	return d.imageLayers[i], true
}

func (d *Document) TextLayer(id string) (TextLayer, bool) {
	i := d.textIndex(id)
	if i < 0 {
		return TextLayer{}, false
	}
	return d.textLayers[i].clone(), true
}

// ImageLayers returns the image layers in insertion order.
func (d *Document) ImageLayers() []ImageLayer {
	return slices.Clone(d.imageLayers)
}

// TextLayers returns the text layers in insertion order.
func (d *Document) TextLayers() []TextLayer {
	out := make([]TextLayer, len(d.textLayers))
	for i, l := range d.textLayers {
		out[i] = l.clone()
	}
	return out
}

// KindOf reports which collection holds id. Text is checked first, matching the
// stacking tie-break.
func (d *Document) KindOf(id string) (LayerKind, bool) {
	if d.textIndex(id) >= 0 {
		return KindText, true
	}
	if d.imageIndex(id) >= 0 {
		return KindImage, true
	}
	return "", false
}

func (d *Document) State() DocumentState {
	var tp *Point
	if d.textPosition != nil {
		p := *d.textPosition
		tp = &p
	}
	return DocumentState{
		Template:        d.template,
		Prompt:          d.prompt,
		SelectedImage:   d.selectedImage,
		ImagePosition:   d.imagePosition,
		TextPosition:    tp,
		TextColor:       d.textColor,
		BackgroundColor: d.bgColor,
		FontFamily:      d.fontFamily,
		PageSize:        d.pageSize,
		CustomPageSize:  d.customPageSize,
		Dimensions:      d.Dimensions(),
		Background:      d.background,
		ImageLayers:     d.ImageLayers(),
		TextLayers:      d.TextLayers(),
	}
}

func (d *Document) imageIndex(id string) int {
	return slices.IndexFunc(d.imageLayers, func(l ImageLayer) bool { return l.ID == id })
}

func (d *Document) textIndex(id string) int {
	return slices.IndexFunc(d.textLayers, func(l TextLayer) bool { return l.ID == id })
}
