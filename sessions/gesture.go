package sessions

import "flyer-server/flyer"

// DefaultPreviewScale is the preview scale assumed when a pointer event does
// not name one.
const DefaultPreviewScale = 0.7

// Pointer is a pointer event as clients send it: screen coordinates plus the
// preview's origin and scale at the time of the event.
type Pointer struct {
	LayerID string   `json:"layerId,omitempty"`
	ClientX float64  `json:"clientX"`
	ClientY float64  `json:"clientY"`
	OriginX float64  `json:"originX"`
	OriginY float64  `json:"originY"`
	Scale   *float64 `json:"scale,omitempty"`
}

func (p Pointer) Viewport() (flyer.Viewport, error) {
	scale := DefaultPreviewScale
	if p.Scale != nil {
		scale = *p.Scale
	}
	return flyer.NewViewport(flyer.Point{X: p.OriginX, Y: p.OriginY}, scale)
}

func (p Pointer) Point() flyer.Point { return flyer.Point{X: p.ClientX, Y: p.ClientY} }

// Moved describes a position committed by a drag move.
type Moved struct {
	LayerID  string          `json:"layerId"`
	Kind     flyer.LayerKind `json:"kind"`
	Position flyer.Point     `json:"position"`
}

// Press starts a drag on p.LayerID. An invalid viewport is an error; a press the
// controller refuses is not.
func (s *Session) Press(p Pointer) (bool, flyer.DragState, error) {
	vp, err := p.Viewport()
	if err != nil {
		return false, flyer.DragState{}, err
	}
	var (
		ok    bool
		state flyer.DragState
	)
	s.Do(func(_ *flyer.Document, drag *flyer.DragController) {
		ok = drag.Press(p.LayerID, p.Point(), vp)
		state = drag.State()
	})
	return ok, state, nil
}

// Move applies one pointer move. The result is nil when nothing was written.
func (s *Session) Move(p Pointer) (*Moved, error) {
	vp, err := p.Viewport()
	if err != nil {
		return nil, err
	}
	var moved *Moved
	s.Do(func(_ *flyer.Document, drag *flyer.DragController) {
		pos, ok := drag.Move(p.Point(), vp)
		if !ok {
			return
		}
		st := drag.State()
		moved = &Moved{LayerID: st.LayerID, Kind: st.Kind, Position: pos}
	})
	return moved, nil
}

func (s *Session) Release() flyer.DragState {
	var state flyer.DragState
	s.Do(func(_ *flyer.Document, drag *flyer.DragController) {
		drag.Release()
		state = drag.State()
	})
	return state
}

func (s *Session) SetDragMode(enabled bool) {
	s.Do(func(_ *flyer.Document, drag *flyer.DragController) { drag.SetEnabled(enabled) })
}

func (s *Session) DragState() (enabled bool, state flyer.DragState) {
	s.Do(func(_ *flyer.Document, drag *flyer.DragController) {
		enabled = drag.Enabled()
		state = drag.State()
	})
	return enabled, state
}
