// Package form labels the large-scale shape of a composition from its
// explicit section markers. The mapping is a plain count lookup; form
// is not inferred from repetition or content.
package form

import "github.com/dygy/score-grep/internal/normalize"

// Label is the coarse form classification.
type Label string

const (
	LabelNone    Label = "none"
	LabelBinary  Label = "binary"
	LabelTernary Label = "ternary"
	LabelCustom  Label = "custom"
)

// Classify maps the section marker count to a form label: no markers
// means no form, one marker is custom, two is binary, three is ternary,
// anything longer is custom.
func Classify(markers []normalize.Marker) Label {
	switch len(markers) {
	case 0:
		return LabelNone
	case 1:
		return LabelCustom
	case 2:
		return LabelBinary
	case 3:
		return LabelTernary
	default:
		return LabelCustom
	}
}

// Span is a labeled section interval, running from its marker to the
// next marker (or the end of the timeline).
type Span struct {
	Label    string  `json:"label"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Sections converts markers into spans for length-based scoring.
func Sections(markers []normalize.Marker, lastEnd float64) []Span {
	spans := make([]Span, 0, len(markers))
	for i, m := range markers {
		end := lastEnd
		if i+1 < len(markers) {
			end = markers[i+1].Start
		}
		if end < m.Start {
			end = m.Start
		}
		spans = append(spans, Span{Label: m.Label, Start: m.Start, Duration: end - m.Start})
	}
	return spans
}
