package flyer

type (
	// RenderTree is the fully resolved document handed to a rasterizer. Layers
	// are listed bottom to top.
	RenderTree struct {
		Template        Template      `json:"template"`
		PageSize        PageSize      `json:"pageSize"`
		Dimensions      Size          `json:"dimensions"`
		BackgroundColor string        `json:"backgroundColor"`
		Background      Background    `json:"background"`
		Layers          []RenderLayer `json:"layers"`
	}

	// RenderLayer holds the geometry and style of one layer after global
	// defaults have been applied. Only the fields of its Kind are set.
	RenderLayer struct {
		ID       string    `json:"id"`
		Kind     LayerKind `json:"kind"`
		ZIndex   int       `json:"zIndex"`
		Position Point     `json:"position"`
		Opacity  float64   `json:"opacity"`

		ImageRef string `json:"image,omitempty"`
		Size     *Size  `json:"size,omitempty"`
		Filter   string `json:"filter,omitempty"`

		Text       string     `json:"text,omitempty"`
		Color      string     `json:"color,omitempty"`
		FontFamily FontFamily `json:"fontFamily,omitempty"`
		FontSize   float64    `json:"fontSize,omitempty"`
		Rotation   float64    `json:"rotation,omitempty"`
		Bold       bool       `json:"bold,omitempty"`
		Italic     bool       `json:"italic,omitempty"`
		MaxWidth   *float64   `json:"maxWidth,omitempty"`
	}
)

// Export resolves the document into a RenderTree.
func (d *Document) Export() RenderTree {
	tree := RenderTree{
		Template:        d.template,
		PageSize:        d.pageSize,
		Dimensions:      d.Dimensions(),
		BackgroundColor: d.bgColor,
		Background:      d.background,
	}

	stack := d.Stacking()
	tree.Layers = make([]RenderLayer, 0, len(stack))
	for _, e := range stack {
		if e.Kind == KindText {
			l, _ := d.TextLayer(e.ID)
			tree.Layers = append(tree.Layers, d.renderText(l))
			continue
		}
		l, _ := d.ImageLayer(e.ID)
		size := l.Size
		tree.Layers = append(tree.Layers, RenderLayer{
			ID:       l.ID,
			Kind:     KindImage,
			ZIndex:   l.ZIndex,
			Position: l.Position,
			Opacity:  l.Opacity,
			ImageRef: l.ImageRef,
			Size:     &size,
			Filter:   l.Filter,
		})
	}
	return tree
}

func (d *Document) renderText(l TextLayer) RenderLayer {
	color := l.Color
	if color == "" {
		color = d.textColor
	}
	font := l.FontFamily
	if font == "" {
		font = d.fontFamily
	}
	return RenderLayer{
		ID:         l.ID,
		Kind:       KindText,
		ZIndex:     l.ZIndex,
		Position:   l.Position,
		Opacity:    l.Opacity,
		Text:       l.Text,
		Color:      color,
		FontFamily: font,
		FontSize:   l.FontSize,
		Rotation:   l.Rotation,
		Bold:       l.Bold,
		Italic:     l.Italic,
		MaxWidth:   l.Width,
	}
}
