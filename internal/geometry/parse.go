package geometry

import (
	"encoding/json"
)

// Analysis backends return bounding boxes in several ad-hoc shapes:
//
//	[x, y, w, h]
//	[xmin, ymin, xmax, ymax]
//	{"xmin": ..., "ymin": ..., "xmax": ..., "ymax": ...}
//	{"x": ..., "y": ..., "w"|"width": ..., "h"|"height": ...}
//	{"left": ..., "top": ..., "width": ..., "height": ...}
//
// Parse dispatches on the observed shape and returns the canonical
// origin-plus-extent form. It never guesses on unrecognized input:
// callers skip the field instead of failing the batch.

// Parse interprets a raw JSON bounding box. pageW/pageH are the known
// page extents, used to disambiguate the two array forms; pass zero
// when unknown. ok is false for missing or unrecognized shapes.
func Parse(raw json.RawMessage, pageW, pageH float64) (r Rect, ok bool) {
	if len(raw) == 0 {
		return Rect{}, false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return Rect{}, false
	}
	return FromValue(v, pageW, pageH)
}

// FromValue interprets an already-decoded bounding box value.
func FromValue(v any, pageW, pageH float64) (Rect, bool) {
	switch b := v.(type) {
	case []any:
		return fromArray(b, pageW, pageH)
	case map[string]any:
		return fromObject(b)
	default:
		return Rect{}, false
	}
}

func fromArray(vals []any, pageW, pageH float64) (Rect, bool) {
	if len(vals) != 4 {
		return Rect{}, false
	}
	var n [4]float64
	for i, v := range vals {
		n[i] = toFloat(v)
	}
	a, b, c, d := n[0], n[1], n[2], n[3]

	// c>a && d>b suggests [xmin,ymin,xmax,ymax]. Only accept that
	// reading when the implied extent fits the page; a quad like
	// [10,10,200,30] on a 1000pt page is width/height, not corners.
	if c > a && d > b {
		w, h := c-a, d-b
		fits := true
		if pageW > 0 && w > pageW {
			fits = false
		}
		if pageH > 0 && h > pageH {
			fits = false
		}
		if fits {
			return Rect{X: a, Y: b, W: w, H: h}, true
		}
	}
	return Rect{X: a, Y: b, W: c, H: d}, true
}

func fromObject(m map[string]any) (Rect, bool) {
	if v, ok := m["xmin"]; ok {
		xmin := toFloat(v)
		ymin := toFloat(m["ymin"])
		xmax := toFloat(m["xmax"])
		ymax := toFloat(m["ymax"])
		return Rect{X: xmin, Y: ymin, W: xmax - xmin, H: ymax - ymin}, true
	}
	if _, ok := m["x"]; ok {
		if _, ok := m["y"]; ok {
			w, wok := dimension(m, "w", "width")
			h, hok := dimension(m, "h", "height")
			if wok && hok {
				return Rect{X: toFloat(m["x"]), Y: toFloat(m["y"]), W: w, H: h}, true
			}
		}
	}
	if v, ok := m["left"]; ok {
		return Rect{
			X: toFloat(v),
			Y: toFloat(m["top"]),
			W: toFloat(m["width"]),
			H: toFloat(m["height"]),
		}, true
	}
	return Rect{}, false
}

func dimension(m map[string]any, short, long string) (float64, bool) {
	if v, ok := m[short]; ok {
		return toFloat(v), true
	}
	if v, ok := m[long]; ok {
		return toFloat(v), true
	}
	return 0, false
}

// toFloat coerces JSON numbers and numeric strings; anything else is 0,
// matching how sloppy backends encode coordinates.
func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	case string:
		var f float64
		if err := json.Unmarshal([]byte(n), &f); err == nil {
			return f
		}
	}
	return 0
}
