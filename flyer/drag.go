package flyer

// DragState is a snapshot of the gesture tracker. When Dragging is false the
// other fields are zero.
type DragState struct {
	Dragging   bool      `json:"dragging"`
	LayerID    string    `json:"layerId,omitempty"`
	Kind       LayerKind `json:"kind,omitempty"`
	GrabOffset Point     `json:"grabOffset"`
}

// DragController tracks the single press-move-release gesture that repositions
// one layer of a Document. It is either idle or dragging exactly one layer.
type DragController struct {
	doc     *Document
	margin  float64
	enabled bool
	active  *gesture
}

type gesture struct {
	layerID string
	kind    LayerKind
	offset  Point
}

func NewDragController(doc *Document) *DragController {
	return &DragController{doc: doc, margin: DefaultMarginReserve}
}

// SetEnabled toggles drag mode. Turning it off does not end a gesture that is
// already running; it only stops new presses and holds moves until it is back on.
func (c *DragController) SetEnabled(enabled bool) { c.enabled = enabled }

func (c *DragController) Enabled() bool { return c.enabled }

// Press starts dragging layerID when drag mode is on and the layer exists. The
// grab offset is the pointer's document position minus the layer origin and is
// kept for the rest of the gesture. Pressing while another layer is being dragged
// switches to the new layer without touching the old one again. A pointer that
// maps outside the representable range is refused.
func (c *DragController) Press(layerID string, pointer Point, vp Viewport) bool {
	if !c.enabled {
		return false
	}
	kind, ok := c.doc.KindOf(layerID)
	if !ok {
		return false
	}

	var origin Point
	if kind == KindText {
		l, _ := c.doc.TextLayer(layerID)
		origin = l.Position
	} else {
		l, _ := c.doc.ImageLayer(layerID)
		origin = l.Position
	}

	offset := vp.ToDocumentSpace(pointer).Sub(origin)
	if !offset.Finite() {
		return false
	}
	c.active = &gesture{
		layerID: layerID,
		kind:    kind,
		offset:  offset,
	}
	return true
}

// Move repositions the dragged layer to the pointer minus the grab offset,
// clamped to the page, and writes it into the document immediately. It returns
// the committed position and whether anything was written.
func (c *DragController) Move(pointer Point, vp Viewport) (Point, bool) {
	if c.active == nil || !c.enabled {
		return Point{}, false
	}
	pos := ClampPosition(vp.ToDocumentSpace(pointer).Sub(c.active.offset), c.doc.Dimensions(), c.margin)

	var written bool
	if c.active.kind == KindText {
		written = c.doc.UpdateTextLayer(c.active.layerID, TextPatch{Position: &pos})
	} else {
		written = c.doc.UpdateImageLayer(c.active.layerID, ImagePatch{Position: &pos})
	}
	return pos, written
}

// Release ends the gesture wherever the pointer is.
func (c *DragController) Release() { c.active = nil }

func (c *DragController) State() DragState {
	if c.active == nil {
		return DragState{}
	}
	return DragState{
		Dragging:   true,
		LayerID:    c.active.layerID,
		Kind:       c.active.kind,
		GrabOffset: c.active.offset,
	}
}
