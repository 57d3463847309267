// Package types holds the wire-level shapes shared between the
// analysis job engine, the field registry, and the HTTP surface.
package types

import (
	"encoding/json"
	"strconv"
)

// RawField is a field descriptor as returned by an analysis backend.
// Everything besides the geometry is opaque to the pipeline. The bbox
// is kept raw because backends disagree on its shape; the geometry
// package interprets it later.
type RawField struct {
	ID          string          `json:"id"`
	Label       string          `json:"label_text,omitempty"`
	Suggestions []string        `json:"suggestions,omitempty"`
	Bbox        json.RawMessage `json:"bbox,omitempty"`
	Page        int             `json:"page,omitempty"`
	Value       string          `json:"value,omitempty"`
}

// rawFieldWire mirrors RawField plus every page-key alias observed in
// the wild. Backends variously emit page, page_number, pageNumber,
// page_num, pageNum, pageno, pageNo, pageIndex, or p.
type rawFieldWire struct {
	ID          any             `json:"id"`
	Label       string          `json:"label_text"`
	LabelAlt    string          `json:"label"`
	Suggestions []string        `json:"suggestions"`
	Bbox        json.RawMessage `json:"bbox"`
	Value       string          `json:"value"`

	Page       any `json:"page"`
	PageSnake  any `json:"page_number"`
	PageCamel  any `json:"pageNumber"`
	PageNum    any `json:"page_num"`
	PageNumC   any `json:"pageNum"`
	PageNo     any `json:"pageno"`
	PageNoC    any `json:"pageNo"`
	PageIndex  any `json:"pageIndex"`
	PageLetter any `json:"p"`
}

// UnmarshalJSON accepts the page-key and label-key variants and folds
// them into the canonical fields. A field without a usable page key
// gets page 0; the registry defaults that to page 1.
func (f *RawField) UnmarshalJSON(data []byte) error {
	var w rawFieldWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	f.ID = stringify(w.ID)
	f.Label = w.Label
	if f.Label == "" {
		f.Label = w.LabelAlt
	}
	f.Suggestions = w.Suggestions
	f.Bbox = w.Bbox
	f.Value = w.Value

	for _, candidate := range []any{
		w.Page, w.PageSnake, w.PageCamel, w.PageNum, w.PageNumC,
		w.PageNo, w.PageNoC, w.PageIndex, w.PageLetter,
	} {
		if n, ok := pageNumber(candidate); ok {
			f.Page = n
			break
		}
	}
	return nil
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		return s.String()
	}
	return ""
}

func pageNumber(v any) (int, bool) {
	var n float64
	switch p := v.(type) {
	case float64:
		n = p
	case json.Number:
		f, err := p.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case string:
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if n < 1 {
		return 0, false
	}
	return int(n), true
}

// AnalysisResponse is the payload shape returned by the analysis
// service for a document.
type AnalysisResponse struct {
	Fields []RawField `json:"fields"`
}
