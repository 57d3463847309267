package geometry

import (
	"encoding/json"
	"math"
	"testing"
)

func almostEqual(a, b Rect) bool {
	const tol = 1.0
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol &&
		math.Abs(a.W-b.W) <= tol && math.Abs(a.H-b.H) <= tol
}

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		pageW  float64
		pageH  float64
		want   Rect
		wantOK bool
	}{
		{
			name:   "array min max",
			raw:    `[10, 20, 110, 60]`,
			pageW:  800, pageH: 1000,
			want:   Rect{X: 10, Y: 20, W: 100, H: 40},
			wantOK: true,
		},
		{
			name:   "array xywh when corners exceed page",
			raw:    `[10, 10, 900, 30]`,
			pageW:  800, pageH: 1000,
			want:   Rect{X: 10, Y: 10, W: 900, H: 30},
			wantOK: true,
		},
		{
			name:   "array xywh descending",
			raw:    `[50, 80, 40, 20]`,
			pageW:  800, pageH: 1000,
			want:   Rect{X: 50, Y: 80, W: 40, H: 20},
			wantOK: true,
		},
		{
			name:   "object min max",
			raw:    `{"xmin": 5, "ymin": 6, "xmax": 25, "ymax": 16}`,
			want:   Rect{X: 5, Y: 6, W: 20, H: 10},
			wantOK: true,
		},
		{
			name:   "object xywh",
			raw:    `{"x": 1, "y": 2, "w": 3, "h": 4}`,
			want:   Rect{X: 1, Y: 2, W: 3, H: 4},
			wantOK: true,
		},
		{
			name:   "object x y width height",
			raw:    `{"x": 1, "y": 2, "width": 3, "height": 4}`,
			want:   Rect{X: 1, Y: 2, W: 3, H: 4},
			wantOK: true,
		},
		{
			name:   "object left top",
			raw:    `{"left": 7, "top": 8, "width": 30, "height": 12}`,
			want:   Rect{X: 7, Y: 8, W: 30, H: 12},
			wantOK: true,
		},
		{
			name:   "numeric strings",
			raw:    `{"x": "10", "y": "20", "w": "30", "h": "40"}`,
			want:   Rect{X: 10, Y: 20, W: 30, H: 40},
			wantOK: true,
		},
		{name: "wrong length array", raw: `[1, 2, 3]`, wantOK: false},
		{name: "unknown object", raw: `{"cx": 1, "cy": 2}`, wantOK: false},
		{name: "null", raw: `null`, wantOK: false},
		{name: "empty", raw: ``, wantOK: false},
		{name: "scalar", raw: `42`, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(json.RawMessage(tt.raw), tt.pageW, tt.pageH)
			if ok != tt.wantOK {
				t.Fatalf("Parse(%s) ok = %v, want %v", tt.raw, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Parse(%s) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	// Encoding a rect to corner form and parsing back must recover the
	// original within one unit.
	rects := []Rect{
		{X: 0, Y: 0, W: 100, H: 50},
		{X: 12.5, Y: 40, W: 80, H: 22},
		{X: 300, Y: 700, W: 150, H: 35},
	}
	for _, r := range rects {
		raw, err := json.Marshal([]float64{r.X, r.Y, r.Right(), r.Bottom()})
		if err != nil {
			t.Fatal(err)
		}
		got, ok := Parse(raw, 1000, 1400)
		if !ok {
			t.Fatalf("round trip parse failed for %+v", r)
		}
		if !almostEqual(got, r) {
			t.Errorf("round trip = %+v, want %+v", got, r)
		}
	}
}

func TestLooksNormalizedFraction(t *testing.T) {
	tests := []struct {
		name string
		r    Rect
		want bool
	}{
		{"fractions", Rect{X: 0.1, Y: 0.2, W: 0.3, H: 0.1}, true},
		{"pixels", Rect{X: 50, Y: 80, W: 120, H: 30}, false},
		{"edge values", Rect{X: 0, Y: 1, W: 1, H: 0}, true},
		{"negative", Rect{X: -0.1, Y: 0.2, W: 0.3, H: 0.1}, false},
		{"nan", Rect{X: math.NaN(), Y: 0.2, W: 0.3, H: 0.1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LooksNormalizedFraction(tt.r); got != tt.want {
				t.Errorf("LooksNormalizedFraction(%+v) = %v, want %v", tt.r, got, tt.want)
			}
		})
	}
}

func TestIoU(t *testing.T) {
	t.Run("disjoint", func(t *testing.T) {
		a := Rect{X: 0, Y: 0, W: 10, H: 10}
		b := Rect{X: 20, Y: 20, W: 10, H: 10}
		if got := a.IoU(b); got != 0 {
			t.Errorf("IoU = %v, want 0", got)
		}
	})

	t.Run("offset overlap below merge threshold", func(t *testing.T) {
		a := Rect{X: 0, Y: 0, W: 100, H: 100}
		b := Rect{X: 50, Y: 50, W: 100, H: 100}
		got := a.IoU(b)
		if got <= 0.13 || got >= 0.15 {
			t.Errorf("IoU = %v, want ~0.143", got)
		}
	})

	t.Run("identical", func(t *testing.T) {
		a := Rect{X: 5, Y: 5, W: 40, H: 20}
		if got := a.IoU(a); math.Abs(got-1) > 1e-9 {
			t.Errorf("IoU = %v, want 1", got)
		}
	})
}

func TestClampToPage(t *testing.T) {
	tests := []struct {
		name string
		in   Rect
		want Rect
	}{
		{"inside", Rect{X: 10, Y: 10, W: 50, H: 20}, Rect{X: 10, Y: 10, W: 50, H: 20}},
		{"negative origin", Rect{X: -5, Y: -8, W: 50, H: 20}, Rect{X: 0, Y: 0, W: 50, H: 20}},
		{"past right edge", Rect{X: 780, Y: 10, W: 50, H: 20}, Rect{X: 750, Y: 10, W: 50, H: 20}},
		{"zero extent", Rect{X: 10, Y: 10, W: 0, H: 0}, Rect{X: 10, Y: 10, W: 1, H: 1}},
		{"oversized", Rect{X: 0, Y: 0, W: 2000, H: 3000}, Rect{X: 0, Y: 0, W: 800, H: 1000}},
		{"rounding", Rect{X: 10.4, Y: 10.6, W: 50.5, H: 19.4}, Rect{X: 10, Y: 11, W: 51, H: 19}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.ClampToPage(800, 1000); got != tt.want {
				t.Errorf("ClampToPage(%+v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestUnion(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 100, H: 100}
	b := Rect{X: 50, Y: 50, W: 100, H: 100}
	want := Rect{X: 0, Y: 0, W: 150, H: 150}
	if got := a.Union(b); got != want {
		t.Errorf("Union = %+v, want %+v", got, want)
	}
}
