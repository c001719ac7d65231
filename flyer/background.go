package flyer

type (
	Background struct {
		ImageRef string          `json:"image"`
		Color    string          `json:"color"`
		Style    BackgroundStyle `json:"style"`
		Opacity  float64         `json:"opacity"`
		Filter   string          `json:"filter"`
	}

	BackgroundPatch struct {
		ImageRef *string          `json:"image,omitempty"`
		Color    *string          `json:"color,omitempty"`
		Style    *BackgroundStyle `json:"style,omitempty"`
		Opacity  *float64         `json:"opacity,omitempty"`
		Filter   *string          `json:"filter,omitempty"`
	}
)

func defaultBackground() Background {
	return Background{
		Color:   "#ffffff",
		Style:   BackgroundCover,
		Opacity: 1,
	}
}

func (b *Background) apply(p BackgroundPatch) {
	if p.ImageRef != nil {
		b.ImageRef = *p.ImageRef
	}
	if p.Color != nil {
		b.Color = *p.Color
	}
	if p.Style != nil {
		b.Style = *p.Style
	}
	if p.Opacity != nil {
		b.Opacity = clampUnit(*p.Opacity)
	}
	if p.Filter != nil {
		b.Filter = *p.Filter
	}
}
