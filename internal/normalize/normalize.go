// Package normalize flattens a composition's tracks into one
// time-ordered event view with all timing expressed in beats.
//
// Some codecs hand over tick values where beats are expected. Rather than
// failing, Flatten detects the confusion and repairs it uniformly: if any
// timing value is suspiciously large AND sits on an integer multiple of
// the file's pulses-per-quarter resolution, every start and duration in
// the composition is divided by that resolution. The correction is
// all-or-nothing; a per-event repair would leave the timeline internally
// inconsistent.
package normalize

import (
	"math"
	"sort"

	"github.com/dygy/score-grep/internal/score"
)

// tickThreshold is the beat value above which tick confusion is suspected.
// A beat position of 1000 is past the end of any real composition; a tick
// position of 1000 is barely two beats in.
const tickThreshold = 1000

// multipleTolerance bounds how far a value may sit from an exact integer
// multiple of the ppq and still count as one.
const multipleTolerance = 1e-3

// Event is a unit-corrected, track-flattened note event. Pitches are
// sorted ascending; Track records provenance for tie-breaking and for the
// quality scorer's overlap checks.
type Event struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Pitches  []int   `json:"pitches"`
	Velocity int     `json:"velocity"`
	Track    int     `json:"track"`
}

// End returns the event's end time in beats.
func (e Event) End() float64 { return e.Start + e.Duration }

// Pedal is a unit-corrected sustain pedal span.
type Pedal struct {
	Start    float64
	Duration float64
	Track    int
}

// Marker is a unit-corrected section marker.
type Marker struct {
	Start float64
	Label string
}

// TempoChange is a unit-corrected tempo event.
type TempoChange struct {
	Start float64
	BPM   float64
}

// Result is the flattened, beat-normalized view of a composition.
type Result struct {
	Notes   []Event
	Pedals  []Pedal
	Markers []Marker
	Tempos  []TempoChange

	PPQ           float64 // resolution used for the correction test
	UnitCorrected bool    // true when tick/beat repair was applied
	LastEnd       float64 // max end over notes and pedals, in beats
}

// Flatten merges all tracks into start-ordered slices and applies the
// tick/beat correction when warranted. The composition is not modified.
func Flatten(c *score.Composition) *Result {
	res := &Result{PPQ: c.EffectivePPQ()}

	for ti, track := range c.Tracks {
		for _, ev := range track.Events {
			switch e := ev.(type) {
			case score.NoteEvent:
				pitches := make([]int, len(e.Pitches))
				copy(pitches, e.Pitches)
				sort.Ints(pitches)
				res.Notes = append(res.Notes, Event{
					Start:    e.Start,
					Duration: e.Duration,
					Pitches:  pitches,
					Velocity: e.Velocity,
					Track:    ti,
				})
			case score.PedalEvent:
				res.Pedals = append(res.Pedals, Pedal{Start: e.Start, Duration: e.Duration, Track: ti})
			case score.TempoEvent:
				res.Tempos = append(res.Tempos, TempoChange{Start: e.Start, BPM: e.BPM})
			case score.SectionEvent:
				res.Markers = append(res.Markers, Marker{Start: e.Start, Label: e.Label})
			}
		}
	}

	if res.ticksSuspected() {
		res.divideAll(res.PPQ)
		res.UnitCorrected = true
	}

	// Deterministic ordering: by start, ties by track index.
	sort.SliceStable(res.Notes, func(i, j int) bool {
		if res.Notes[i].Start != res.Notes[j].Start {
			return res.Notes[i].Start < res.Notes[j].Start
		}
		return res.Notes[i].Track < res.Notes[j].Track
	})
	sort.SliceStable(res.Pedals, func(i, j int) bool { return res.Pedals[i].Start < res.Pedals[j].Start })
	sort.SliceStable(res.Markers, func(i, j int) bool { return res.Markers[i].Start < res.Markers[j].Start })
	sort.SliceStable(res.Tempos, func(i, j int) bool { return res.Tempos[i].Start < res.Tempos[j].Start })

	for _, n := range res.Notes {
		if n.End() > res.LastEnd {
			res.LastEnd = n.End()
		}
	}
	for _, p := range res.Pedals {
		if end := p.Start + p.Duration; end > res.LastEnd {
			res.LastEnd = end
		}
	}
	return res
}

// ticksSuspected reports whether any timing value looks like a raw tick
// count: above the threshold and an integer multiple of the ppq.
func (r *Result) ticksSuspected() bool {
	check := func(v float64) bool {
		return v > tickThreshold && isMultipleOf(v, r.PPQ)
	}
	for _, n := range r.Notes {
		if check(n.Start) || check(n.Duration) {
			return true
		}
	}
	for _, p := range r.Pedals {
		if check(p.Start) || check(p.Duration) {
			return true
		}
	}
	for _, m := range r.Markers {
		if check(m.Start) {
			return true
		}
	}
	for _, t := range r.Tempos {
		if check(t.Start) {
			return true
		}
	}
	return false
}

func isMultipleOf(v, ppq float64) bool {
	if ppq <= 0 {
		return false
	}
	q := v / ppq
	return math.Abs(q-math.Round(q)) <= multipleTolerance
}

// divideAll rescales every timing field uniformly.
func (r *Result) divideAll(ppq float64) {
	for i := range r.Notes {
		r.Notes[i].Start /= ppq
		r.Notes[i].Duration /= ppq
	}
	for i := range r.Pedals {
		r.Pedals[i].Start /= ppq
		r.Pedals[i].Duration /= ppq
	}
	for i := range r.Markers {
		r.Markers[i].Start /= ppq
	}
	for i := range r.Tempos {
		r.Tempos[i].Start /= ppq
	}
}
