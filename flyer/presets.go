package flyer

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

type (
	PageSize        string
	Template        string
	FontFamily      string
	BackgroundStyle string
	ImagePosition   string
)

const (
	PageA4           PageSize = "a4"
	PageLetter       PageSize = "letter"
	PageSocialSquare PageSize = "social"
	PagePoster       PageSize = "poster"
	PageCustom       PageSize = "custom"
)

const (
	TemplateBusiness  Template = "business"
	TemplateEvent     Template = "event"
	TemplatePromotion Template = "promotion"
)

const (
	FontSans        FontFamily = "sans"
	FontSerif       FontFamily = "serif"
	FontMono        FontFamily = "mono"
	FontDisplay     FontFamily = "display"
	FontHandwriting FontFamily = "handwriting"
)

const (
	BackgroundCover   BackgroundStyle = "cover"
	BackgroundContain BackgroundStyle = "contain"
	BackgroundStretch BackgroundStyle = "stretch"
	BackgroundRepeat  BackgroundStyle = "repeat"
	BackgroundPattern BackgroundStyle = "pattern"
	BackgroundOverlay BackgroundStyle = "overlay"
)

const (
	ImageTop        ImagePosition = "top"
	ImageBottom     ImagePosition = "bottom"
	ImageLeft       ImagePosition = "left"
	ImageRight      ImagePosition = "right"
	ImageBackground ImagePosition = "background"
)

var (
	ErrUnknownPageSize        = errors.New("unknown page size")
	ErrUnknownTemplate        = errors.New("unknown template")
	ErrUnknownFontFamily      = errors.New("unknown font family")
	ErrUnknownBackgroundStyle = errors.New("unknown background style")
	ErrUnknownImagePosition   = errors.New("unknown image position")
)

// Page dimensions in points (72 per inch). The custom entry is only the initial
// custom size of a new document.
var pageSizeDimensions = map[PageSize]Size{
	PageA4:           {Width: 595, Height: 842},
	PageLetter:       {Width: 612, Height: 792},
	PageSocialSquare: {Width: 1080, Height: 1080},
	PagePoster:       {Width: 510, Height: 768},
	PageCustom:       {Width: 500, Height: 700},
}

var templateImages = map[Template]string{
	TemplateBusiness:  "https://images.unsplash.com/photo-1573164574511-73c773193279?w=800&h=600&fit=crop",
	TemplateEvent:     "https://images.unsplash.com/photo-1540575467063-178a50c2df87?w=800&h=600&fit=crop",
	TemplatePromotion: "https://images.unsplash.com/photo-1572521165329-b197f9ea3da6?w=800&h=600&fit=crop",
}

// filterPresets are the named compositing directives offered for image layers
// and the background.
var filterPresets = map[string]string{
	"none":      "",
	"grayscale": "grayscale(100%)",
	"sepia":     "sepia(100%)",
	"vintage":   "sepia(40%) brightness(90%)",
	"blur":      "blur(2px)",
	"contrast":  "contrast(150%)",
	"bright":    "brightness(120%)",
	"dark":      "brightness(80%)",
	"warm":      "sepia(30%) saturate(140%)",
	"cool":      "hue-rotate(30deg) saturate(80%)",
}

// ResolveFilter turns a preset name into its directive. Anything that is not a
// preset name is taken as a directive already and returned trimmed.
func ResolveFilter(nameOrDirective string) string {
	v := strings.TrimSpace(nameOrDirective)
	if directive, ok := filterPresets[strings.ToLower(v)]; ok {
		return directive
	}
	return v
}

// FilterPresets lists the preset names with their directives, sorted by name.
func FilterPresets() []FilterPreset {
	out := make([]FilterPreset, 0, len(filterPresets))
	for name, directive := range filterPresets {
		out = append(out, FilterPreset{Name: name, Directive: directive})
	}
	slices.SortFunc(out, func(a, b FilterPreset) int { return strings.Compare(a.Name, b.Name) })
	return out
}

type FilterPreset struct {
	Name      string `json:"name"`
	Directive string `json:"directive"`
}

// Dimensions returns the fixed size of a preset.
func (p PageSize) Dimensions() (Size, bool) {
	s, ok := pageSizeDimensions[p]
	return s, ok
}

// DefaultImage is the reference a template starts with.
func (t Template) DefaultImage() string {
	return templateImages[t]
}

func ParsePageSize(s string) (PageSize, error) {
	p := PageSize(s)
	if _, ok := pageSizeDimensions[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPageSize, s)
	}
	return p, nil
}

func ParseTemplate(s string) (Template, error) {
	t := Template(s)
	if _, ok := templateImages[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTemplate, s)
	}
	return t, nil
}

func ParseFontFamily(s string) (FontFamily, error) {
	switch f := FontFamily(s); f {
	case FontSans, FontSerif, FontMono, FontDisplay, FontHandwriting:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFontFamily, s)
}

func ParseBackgroundStyle(s string) (BackgroundStyle, error) {
	switch b := BackgroundStyle(s); b {
	case BackgroundCover, BackgroundContain, BackgroundStretch,
		BackgroundRepeat, BackgroundPattern, BackgroundOverlay:
		return b, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBackgroundStyle, s)
}

func ParseImagePosition(s string) (ImagePosition, error) {
	switch p := ImagePosition(s); p {
	case ImageTop, ImageBottom, ImageLeft, ImageRight, ImageBackground:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownImagePosition, s)
}
