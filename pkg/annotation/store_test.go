package annotation

import (
	"errors"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/novvoo/go-pdfannotate/pkg/geometry"
)

func ids(list []Annotation) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.ID
	}
	return out
}

func TestCreateDefaults(t *testing.T) {
	s := NewStore()
	id := s.Create(0, Text, geometry.Rect{X: 1, Y: 2}, Patch{})
	a, ok := s.Get(id)
	if !ok {
		t.Fatal("created annotation not found")
	}
	if a.FontSize != DefaultFontSize || a.Color != DefaultTextColor {
		t.Errorf("text defaults not applied: %+v", a)
	}
	if a.Width != 0 || a.Height != 0 || a.X != 1 || a.Y != 2 {
		t.Errorf("rect = %v", a.Rect())
	}

	id = s.Create(1, Highlight, geometry.Rect{W: 5, H: 5}, Patch{Color: Ptr(color.NRGBA{R: 1, A: 255})})
	a, _ = s.Get(id)
	if a.Color != (color.NRGBA{R: 1, A: 255}) {
		t.Errorf("colour override lost: %v", a.Color)
	}
}

func TestUniqueIDs(t *testing.T) {
	s := NewStore()
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		id := s.Create(0, Highlight, geometry.Rect{}, Patch{})
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestUpdate(t *testing.T) {
	s := NewStore()
	id := s.Create(0, Text, geometry.Rect{}, Patch{})
	if err := s.Update(id, Patch{Text: Ptr("hello"), Width: Ptr(2.0)}); err != nil {
		t.Fatal(err)
	}
	a, _ := s.Get(id)
	if a.Text != "hello" || a.Width != 2 {
		t.Errorf("update not applied: %+v", a)
	}
	if err := s.Update("nope", Patch{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(unknown) = %v, want ErrNotFound", err)
	}
	if err := s.Delete("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(unknown) = %v, want ErrNotFound", err)
	}
}

func TestDuplicate(t *testing.T) {
	s := NewStore()
	first := s.Create(0, Highlight, geometry.Rect{X: 100, Y: 100, W: 20, H: 10}, Patch{})
	last := s.Create(0, Highlight, geometry.Rect{}, Patch{})

	dup, err := s.Duplicate(first)
	if err != nil {
		t.Fatal(err)
	}
	if dup == first {
		t.Fatal("duplicate reused the original id")
	}
	if d := cmp.Diff([]string{first, dup, last}, ids(s.All())); d != "" {
		t.Errorf("z-order (-want +got):\n%s", d)
	}
	a, _ := s.Get(dup)
	if d := cmp.Diff(geometry.Rect{X: 110, Y: 110, W: 20, H: 10}, a.Rect()); d != "" {
		t.Errorf("duplicate rect (-want +got):\n%s", d)
	}
}

func TestDuplicateCopiesImageData(t *testing.T) {
	s := NewStore()
	id := s.Create(0, Image, geometry.Rect{}, Patch{ImageData: []byte{1, 2, 3}})
	dup, _ := s.Duplicate(id)
	s.items[0].ImageData[0] = 9
	a, _ := s.Get(dup)
	if a.ImageData[0] != 1 {
		t.Error("duplicate shares image bytes with the original")
	}
}

func TestReorderZ(t *testing.T) {
	s := NewStore()
	a := s.Create(0, Text, geometry.Rect{}, Patch{})
	b := s.Create(0, Text, geometry.Rect{}, Patch{})
	c := s.Create(0, Text, geometry.Rect{}, Patch{})

	if err := s.ReorderZ(a, Front); err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]string{b, c, a}, ids(s.All())); d != "" {
		t.Errorf("front (-want +got):\n%s", d)
	}
	if err := s.ReorderZ(c, Back); err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]string{c, b, a}, ids(s.All())); d != "" {
		t.Errorf("back (-want +got):\n%s", d)
	}
}

func TestFilterAndPaintOrder(t *testing.T) {
	s := NewStore()
	t1 := s.Create(0, Text, geometry.Rect{}, Patch{})
	h1 := s.Create(0, Highlight, geometry.Rect{}, Patch{})
	s.Create(1, Highlight, geometry.Rect{}, Patch{})
	i1 := s.Create(0, Image, geometry.Rect{}, Patch{})
	h2 := s.Create(0, Highlight, geometry.Rect{}, Patch{})

	if d := cmp.Diff([]string{t1, h1, i1, h2}, ids(s.FilterByPage(0))); d != "" {
		t.Errorf("FilterByPage (-want +got):\n%s", d)
	}
	if d := cmp.Diff([]string{h1, h2, t1, i1}, ids(s.PaintOrder(0))); d != "" {
		t.Errorf("PaintOrder (-want +got):\n%s", d)
	}
}

func TestRemap(t *testing.T) {
	s := NewStore()
	a := s.Create(0, Text, geometry.Rect{}, Patch{})
	s.Create(1, Text, geometry.Rect{}, Patch{})
	c := s.Create(2, Text, geometry.Rect{}, Patch{})

	s.Remap(func(i int) (int, bool) {
		switch i {
		case 0:
			return 0, true
		case 2:
			return 1, true
		}
		return 0, false
	})
	if d := cmp.Diff([]string{a, c}, ids(s.All())); d != "" {
		t.Errorf("(-want +got):\n%s", d)
	}
	got, _ := s.Get(c)
	if got.PageIndex != 1 {
		t.Errorf("page index = %d, want 1", got.PageIndex)
	}
}

func TestClampMin(t *testing.T) {
	tests := []struct {
		typ  Type
		in   geometry.Rect
		want geometry.Rect
	}{
		{Highlight, geometry.Rect{X: 5, Y: 5, W: 2, H: 2}, geometry.Rect{X: 5, Y: 5, W: 8, H: 8}},
		{Image, geometry.Rect{W: 30, H: 1}, geometry.Rect{W: 30, H: 8}},
		{Text, geometry.Rect{X: 1, Y: 1, W: 10, H: 10}, geometry.Rect{X: 1, Y: 1, W: 200, H: 40}},
		{Text, geometry.Rect{W: 300, H: 50}, geometry.Rect{W: 300, H: 50}},
	}
	for _, tt := range tests {
		a := Annotation{Type: tt.typ}
		a.SetRect(tt.in)
		ClampMin(&a)
		if d := cmp.Diff(tt.want, a.Rect()); d != "" {
			t.Errorf("%s %v (-want +got):\n%s", tt.typ, tt.in, d)
		}
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{in: "#111", want: color.NRGBA{0x11, 0x11, 0x11, 255}},
		{in: "#ff0080", want: color.NRGBA{255, 0, 128, 255}},
		{in: "#ff008040", want: color.NRGBA{255, 0, 128, 64}},
		{in: "rgba(255,235,59,0.5)", want: DefaultHighlightColor},
		{in: " RGB(1, 2, 3) ", want: color.NRGBA{1, 2, 3, 255}},
		{in: "yellow", want: color.NRGBA{255, 255, 0, 255}},
		{in: "", wantErr: true},
		{in: "#12", wantErr: true},
		{in: "rgb(1,2)", wantErr: true},
		{in: "no-such-colour", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseColor(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
			}
			back, err := ParseColor(FormatColor(got))
			if err != nil || back != got {
				t.Errorf("FormatColor round trip: %v, %v", back, err)
			}
		})
	}
}
