package flyer

import (
	"errors"
	"fmt"
	"sort"
)

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

var ErrUnknownDirection = errors.New("unknown direction")

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case Up, Down:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

// StackEntry is one layer's place in the combined stacking order.
type StackEntry struct {
	ID     string    `json:"id"`
	ZIndex int       `json:"zIndex"`
	Kind   LayerKind `json:"kind"`
}

// Stacking lists every layer of both collections from bottom to top. Equal
// z-indexes keep the order in which the union is built: text layers first, then
// image layers, each in insertion order.
func (d *Document) Stacking() []StackEntry {
	all := make([]StackEntry, 0, len(d.textLayers)+len(d.imageLayers))
	for _, l := range d.textLayers {
		all = append(all, StackEntry{ID: l.ID, ZIndex: l.ZIndex, Kind: KindText})
	}
	for _, l := range d.imageLayers {
		all = append(all, StackEntry{ID: l.ID, ZIndex: l.ZIndex, Kind: KindImage})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].ZIndex < all[j].ZIndex })
	return all
}

// MoveLayer moves a layer one step up or down the combined order.
//
// A neighbour of the same kind trades z-index with the target, so an opposite
// move restores both values. A neighbour of the other kind is left untouched and
// the target is placed one above (or below) it; this can make z-indexes of
// different kinds collide, in which case Stacking's tie-break decides.
//
// Unknown ids and moves past either end do nothing and report false.
func (d *Document) MoveLayer(id string, dir Direction) bool {
	all := d.Stacking()
	current := -1
	for i, e := range all {
		if e.ID == id {
			current = i
			break
		}
	}
	if current < 0 {
		return false
	}

	var neighbor int
	switch dir {
	case Up:
		if current == len(all)-1 {
			return false
		}
		neighbor = current + 1
	case Down:
		if current == 0 {
			return false
		}
		neighbor = current - 1
	default:
		return false
	}

	target, next := all[current], all[neighbor]
	if target.Kind == next.Kind {
		d.setZIndex(target.Kind, target.ID, next.ZIndex)
		d.setZIndex(next.Kind, next.ID, target.ZIndex)
		return true
	}

	z := next.ZIndex + 1
	if dir == Down {
		z = next.ZIndex - 1
	}
	d.setZIndex(target.Kind, target.ID, z)
	return true
}

// setZIndex writes through the collection's own update path.
func (d *Document) setZIndex(kind LayerKind, id string, z int) {
	if kind == KindText {
		d.UpdateTextLayer(id, TextPatch{ZIndex: &z})
		return
	}
	d.UpdateImageLayer(id, ImagePatch{ZIndex: &z})
}
