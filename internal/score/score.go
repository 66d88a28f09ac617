// Package score defines the symbolic composition model consumed by the
// analysis pipeline. Compositions are produced by codecs (MIDI, JSON) and
// treated as read-only input everywhere downstream.
package score

// MIDI pitch range
const (
	MinPitch = 0
	MaxPitch = 127
)

// DefaultPPQ is assumed when a codec does not report a timing resolution.
const DefaultPPQ = 480.0

// TimeSignature is a simple meter fraction (4/4, 3/4, ...)
type TimeSignature struct {
	Numerator   int `json:"numerator"`
	Denominator int `json:"denominator"`
}

// Composition is an ordered set of tracks plus score-level metadata.
type Composition struct {
	Title         string        `json:"title"`
	BPM           float64       `json:"bpm"`
	TimeSignature TimeSignature `json:"time_signature"`
	KeySignature  string        `json:"key_signature,omitempty"` // empty when unknown
	PPQ           float64       `json:"ppq,omitempty"`           // pulses per quarter note, reported by the codec
	Tracks        []Track       `json:"tracks"`
}

// Track is a named, start-ordered event sequence.
type Track struct {
	Name   string  `json:"name,omitempty"`
	Events []Event `json:"events"`
}

// Event is the closed set of score event kinds. The four implementations
// below are the only ones; switches over Event can be exhaustive.
type Event interface {
	// Onset returns the event start time in the composition's native units.
	Onset() float64
	isEvent()
}

// NoteEvent is one or more pitches sounding together from a common onset.
type NoteEvent struct {
	Start    float64
	Duration float64
	Pitches  []int
	Velocity int
}

// PedalEvent is a sustain pedal press.
type PedalEvent struct {
	Start    float64
	Duration float64
}

// TempoEvent changes the beat rate from its start onward.
type TempoEvent struct {
	Start float64
	BPM   float64
}

// SectionEvent is an explicit structural marker ("A", "chorus", ...).
type SectionEvent struct {
	Start float64
	Label string
}

func (e NoteEvent) Onset() float64    { return e.Start }
func (e PedalEvent) Onset() float64   { return e.Start }
func (e TempoEvent) Onset() float64   { return e.Start }
func (e SectionEvent) Onset() float64 { return e.Start }

func (NoteEvent) isEvent()    {}
func (PedalEvent) isEvent()   {}
func (TempoEvent) isEvent()   {}
func (SectionEvent) isEvent() {}

// NoteCount returns the total number of note events across all tracks.
func (c *Composition) NoteCount() int {
	var n int
	for _, t := range c.Tracks {
		for _, ev := range t.Events {
			if _, ok := ev.(NoteEvent); ok {
				n++
			}
		}
	}
	return n
}

// EffectivePPQ returns the codec-reported resolution, or DefaultPPQ.
func (c *Composition) EffectivePPQ() float64 {
	if c.PPQ > 0 {
		return c.PPQ
	}
	return DefaultPPQ
}
