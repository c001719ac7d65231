// Package imageref classifies the opaque image references layers carry. A
// reference is either a remote URI, stored as given and never fetched, or a
// base64 data URI whose header can be probed for the image size.
package imageref

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type Kind string

const (
	KindRemote Kind = "remote"
	KindData   Kind = "data"
)

var (
	ErrEmpty       = errors.New("image reference is empty")
	ErrMalformed   = errors.New("malformed data URI")
	ErrUndecodable = errors.New("data URI does not hold a known image format")
)

type Ref struct {
	Raw       string `json:"raw"`
	Kind      Kind   `json:"kind"`
	MediaType string `json:"mediaType,omitempty"`

	payload string
	base64  bool
}

// Info is what Probe learns from an image header.
type Info struct {
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Parse classifies ref. Only data URIs are inspected; anything else non-empty
// is accepted as a remote reference.
func Parse(ref string) (Ref, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Ref{}, ErrEmpty
	}
	if !strings.HasPrefix(strings.ToLower(ref), "data:") {
		return Ref{Raw: ref, Kind: KindRemote}, nil
	}

	header, payload, ok := strings.Cut(ref[len("data:"):], ",")
	if !ok {
		return Ref{}, fmt.Errorf("%w: missing comma", ErrMalformed)
	}
	r := Ref{Raw: ref, Kind: KindData, payload: payload}
	params := strings.Split(header, ";")
	r.MediaType = strings.ToLower(params[0])
	for _, p := range params[1:] {
		if strings.EqualFold(p, "base64") {
			r.base64 = true
		}
	}
	if r.MediaType != "" && !strings.HasPrefix(r.MediaType, "image/") {
		return Ref{}, fmt.Errorf("%w: media type %q is not an image", ErrMalformed, r.MediaType)
	}
	return r, nil
}

// Probe decodes the header of a base64 data URI. Remote references report
// ok=false without any network access.
func Probe(r Ref) (info Info, ok bool, err error) {
	if r.Kind != KindData {
		return Info{}, false, nil
	}
	if !r.base64 {
		return Info{}, false, fmt.Errorf("%w: only base64 payloads are supported", ErrMalformed)
	}
	data, err := base64.StdEncoding.DecodeString(r.payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(r.payload)
		if err != nil {
			return Info{}, false, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, false, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, true, nil
}

// Validate parses ref and, for data URIs, makes sure the payload is an image.
func Validate(ref string) (Ref, *Info, error) {
	r, err := Parse(ref)
	if err != nil {
		return Ref{}, nil, err
	}
	info, ok, err := Probe(r)
	if err != nil {
		return Ref{}, nil, err
	}
	if !ok {
		return r, nil, nil
	}
	return r, &info, nil
}
