package flyer

import (
	"errors"
	"reflect"
	"testing"
)

func zIndexes(d *Document) map[string]int {
	out := map[string]int{}
	for _, e := range d.Stacking() {
		out[e.ID] = e.ZIndex
	}
	return out
}

func stackIDs(d *Document) []string {
	var ids []string
	for _, e := range d.Stacking() {
		ids = append(ids, e.ID)
	}
	return ids
}

func TestStacking_TextBeforeImageOnTies(t *testing.T) {
	d := newTestDocument()
	img := d.AddImageLayer("a")
	d.SetText("legacy")

	got := stackIDs(d)
	want := []string{"text-1", img.ID}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Stacking() = %v, want %v", got, want)
	}
}

func TestMoveLayer_SameKindSwaps(t *testing.T) {
	d := newTestDocument()
	l1 := d.AddImageLayer("a")
	l2 := d.AddImageLayer("b")

	if !d.MoveLayer(l1.ID, Up) {
		t.Fatal("MoveLayer() reported no change")
	}
	z := zIndexes(d)
	if z[l1.ID] != 11 || z[l2.ID] != 10 {
		t.Errorf("after up: %s=%d %s=%d, want 11 and 10", l1.ID, z[l1.ID], l2.ID, z[l2.ID])
	}
}

func TestMoveLayer_SwapIsReversible(t *testing.T) {
	d := newTestDocument()
	d.AddDefaultTextLayer()
	mid := d.AddDefaultTextLayer()
	d.AddDefaultTextLayer()
	before := zIndexes(d)

	d.MoveLayer(mid.ID, Up)
	d.MoveLayer(mid.ID, Down)

	if after := zIndexes(d); !reflect.DeepEqual(before, after) {
		t.Errorf("up then down = %v, want %v", after, before)
	}
}

func TestMoveLayer_CrossKindPlacesNextToNeighbour(t *testing.T) {
	d := newTestDocument()
	img := d.AddImageLayer("a")    // z10
	txt := d.AddDefaultTextLayer() // z100

	if !d.MoveLayer(img.ID, Up) {
		t.Fatal("MoveLayer(up) reported no change")
	}
	z := zIndexes(d)
	if z[img.ID] != 101 || z[txt.ID] != 100 {
		t.Errorf("after up: image=%d text=%d, want 101 and 100", z[img.ID], z[txt.ID])
	}

	if !d.MoveLayer(img.ID, Down) {
		t.Fatal("MoveLayer(down) reported no change")
	}
	z = zIndexes(d)
	if z[img.ID] != 99 || z[txt.ID] != 100 {
		t.Errorf("after down: image=%d text=%d, want 99 and 100", z[img.ID], z[txt.ID])
	}
}

func TestMoveLayer_BoundariesAndUnknownIDs(t *testing.T) {
	d := newTestDocument()
	bottom := d.AddImageLayer("a")
	top := d.AddDefaultTextLayer()
	before := zIndexes(d)

	cases := []struct {
		id  string
		dir Direction
	}{
		{top.ID, Up},
		{bottom.ID, Down},
		{"missing", Up},
		{bottom.ID, Direction("sideways")},
	}
	for _, tc := range cases {
		if d.MoveLayer(tc.id, tc.dir) {
			t.Errorf("MoveLayer(%s, %s) reported a change", tc.id, tc.dir)
		}
	}
	if after := zIndexes(d); !reflect.DeepEqual(before, after) {
		t.Errorf("z-indexes changed: %v, want %v", after, before)
	}
}

func TestMoveLayer_SingleLayer(t *testing.T) {
	d := newTestDocument()
	l := d.AddImageLayer("a")
	if d.MoveLayer(l.ID, Up) || d.MoveLayer(l.ID, Down) {
		t.Error("a lone layer moved")
	}
}

func TestParseDirection(t *testing.T) {
	if d, err := ParseDirection("down"); err != nil || d != Down {
		t.Errorf("ParseDirection(down) = %q, %v", d, err)
	}
	if _, err := ParseDirection("left"); !errors.Is(err, ErrUnknownDirection) {
		t.Errorf("ParseDirection(left) error = %v, want ErrUnknownDirection", err)
	}
}
