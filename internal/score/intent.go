package score

// MusicalIntent is an optional external annotation attached to a
// composition: manually marked key ideas plus expansion guidance. It is
// produced by annotation tooling, never by the analysis core.
type MusicalIntent struct {
	KeyIdeas        []KeyIdea        `json:"key_ideas"`
	ExpansionPoints []ExpansionPoint `json:"expansion_points"`
	Preserve        []string         `json:"preserve,omitempty"`
}

// KeyIdea marks a span of the score as musically important. Auto-detected
// motifs and phrases are reported in the same shape.
type KeyIdea struct {
	ID                   string  `json:"id"`
	Kind                 string  `json:"kind"` // "motif", "phrase", "theme", ...
	Start                float64 `json:"start"`
	Duration             float64 `json:"duration"`
	Description          string  `json:"description,omitempty"`
	Importance           float64 `json:"importance"`
	DevelopmentDirection string  `json:"development_direction,omitempty"`
}

// ExpansionPoint asks for a section to be grown to a target length while
// preserving the listed idea IDs.
type ExpansionPoint struct {
	Section         string   `json:"section"`
	CurrentLength   float64  `json:"current_length"`
	SuggestedLength float64  `json:"suggested_length"`
	Strategy        string   `json:"strategy,omitempty"`
	Preserve        []string `json:"preserve,omitempty"`
}

// Overlap returns the length of the intersection of [aStart,aStart+aDur)
// and [bStart,bStart+bDur), or 0 when they are disjoint.
func Overlap(aStart, aDur, bStart, bDur float64) float64 {
	lo := aStart
	if bStart > lo {
		lo = bStart
	}
	hi := aStart + aDur
	if bEnd := bStart + bDur; bEnd < hi {
		hi = bEnd
	}
	if hi <= lo {
		return 0
	}
	return hi - lo
}
