// Package quality scores a composition from the analysis results already
// computed upstream. Score takes the motif, phrase and harmony outputs as
// parameters on purpose: recomputing them here was the root of a severe
// performance regression in an earlier design, and the signature makes
// that mistake visible at compile time.
package quality

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/dygy/score-grep/internal/form"
	"github.com/dygy/score-grep/internal/harmony"
	"github.com/dygy/score-grep/internal/motif"
	"github.com/dygy/score-grep/internal/normalize"
	"github.com/dygy/score-grep/internal/phrase"
)

// Severity grades a quality issue.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Issue is one deduction with a human-readable explanation.
type Issue struct {
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

// Weights is the configurable mix of the three sub-scores.
type Weights struct {
	Technical float64 `json:"technical" mapstructure:"technical"`
	Musical   float64 `json:"musical" mapstructure:"musical"`
	Structure float64 `json:"structure" mapstructure:"structure"`
}

// DefaultWeights returns the standard scoring mix.
func DefaultWeights() Weights {
	return Weights{Technical: 0.4, Musical: 0.35, Structure: 0.25}
}

// Report holds the sub-scores, the weighted overall score and every
// issue found. All scores are clamped to [0,1]; Issues is never nil.
type Report struct {
	Overall   float64 `json:"overall"`
	Technical float64 `json:"technical"`
	Musical   float64 `json:"musical"`
	Structure float64 `json:"structure"`
	Issues    []Issue `json:"issues"`
}

// Inputs bundles the precomputed upstream results. Every field is
// required; nothing in this package can fall back to re-analysis.
type Inputs struct {
	Norm        *normalize.Result
	Motifs      []motif.Motif
	Phrases     []phrase.Phrase
	Progression *harmony.Progression
	Form        form.Label
	Sections    []form.Span
}

const (
	tickResidueThreshold  = 1000.0
	velocityVarianceFloor = 25.0 // below this, dynamics are effectively flat
	leapSemitones         = 12.0 // average motion past an octave reads as disjunct
)

// Score computes the quality report. Degenerate input (no notes) yields
// neutral 0.5 sub-scores and no issues.
func Score(in Inputs, w Weights) *Report {
	r := &Report{Issues: make([]Issue, 0)}

	r.Technical = in.technicalScore(r)
	r.Musical = in.musicalScore(r)
	r.Structure = in.structureScore(r)

	if w.Technical+w.Musical+w.Structure <= 0 {
		w = DefaultWeights()
	}
	sum := w.Technical + w.Musical + w.Structure
	r.Overall = clamp((w.Technical*r.Technical + w.Musical*r.Musical + w.Structure*r.Structure) / sum)
	return r
}

func (in Inputs) technicalScore(r *Report) float64 {
	if len(in.Norm.Notes) == 0 {
		return 0.5
	}
	score := 1.0

	zeroPedals := 0
	for _, p := range in.Norm.Pedals {
		if p.Duration == 0 {
			zeroPedals++
		}
	}
	if zeroPedals > 0 {
		score -= penalty(0.05*float64(zeroPedals), 0.2)
		r.add(fmt.Sprintf("%d pedal event(s) with zero duration", zeroPedals), SeverityLow)
	}

	if n := countPitchOverlaps(in.Norm.Notes); n > 0 {
		score -= penalty(0.05*float64(n), 0.3)
		r.add(fmt.Sprintf("%d overlapping note(s) with identical pitch on the same track", n), SeverityMedium)
	}

	if hasTickResidue(in.Norm) {
		score -= 0.3
		r.add("timing values look like raw ticks; tick/beat units are inconsistent", SeverityHigh)
	}
	return clamp(score)
}

func (in Inputs) musicalScore(r *Report) float64 {
	if len(in.Norm.Notes) == 0 {
		return 0.5
	}
	score := 0.5

	velocities := make([]float64, len(in.Norm.Notes))
	for i, n := range in.Norm.Notes {
		velocities[i] = float64(n.Velocity)
	}
	if variance(velocities) >= velocityVarianceFloor {
		score += 0.25
	} else {
		r.add("velocity is nearly constant; dynamics are flat", SeverityLow)
	}

	if prog := in.Progression; prog != nil && len(prog.Motions) > 0 {
		leaps := 0
		for i, m := range prog.Motions {
			// Motions[i] measures the transition into Chords[i+1].
			perVoice := float64(m.SemitoneMotion)
			if voices := len(prog.Chords[i+1].Pitches); voices > 0 {
				perVoice /= float64(voices)
			}
			if perVoice > leapSemitones {
				leaps++
			}
		}
		ratio := float64(leaps) / float64(len(prog.Motions))
		switch {
		case ratio > 0.5:
			score -= 0.3
			r.add("large melodic leaps across most chord transitions", SeverityMedium)
		case ratio < 0.2:
			score += 0.15
		}
	}
	return clamp(score)
}

func (in Inputs) structureScore(r *Report) float64 {
	if len(in.Norm.Notes) == 0 {
		return 0.5
	}
	score := 0.5

	if len(in.Phrases) >= 2 {
		lengths := make([]float64, len(in.Phrases))
		for i, p := range in.Phrases {
			lengths[i] = p.Duration
		}
		switch cv := coefficientOfVariation(lengths); {
		case cv < 0.5:
			score += 0.25
		case cv > 1.0:
			score -= 0.2
			r.add("phrase lengths are highly uneven", SeverityLow)
		}
	}

	if in.Form == form.LabelCustom && len(in.Sections) >= 2 {
		lengths := make([]float64, len(in.Sections))
		for i, s := range in.Sections {
			lengths[i] = s.Duration
		}
		if coefficientOfVariation(lengths) > 0.5 {
			score -= 0.25
			r.add("custom form with highly uneven section lengths", SeverityMedium)
		}
	}
	return clamp(score)
}

func (r *Report) add(description string, sev Severity) {
	r.Issues = append(r.Issues, Issue{Description: description, Severity: sev})
}

// countPitchOverlaps finds notes on the same track that sound the same
// pitch while a previous note of that pitch is still held.
func countPitchOverlaps(notes []normalize.Event) int {
	type voice struct{ track, pitch int }
	lastEnd := make(map[voice]float64)
	overlaps := 0
	for _, n := range notes {
		for _, p := range n.Pitches {
			v := voice{track: n.Track, pitch: p}
			if end, ok := lastEnd[v]; ok && n.Start < end {
				overlaps++
			}
			if e := n.End(); e > lastEnd[v] {
				lastEnd[v] = e
			}
		}
	}
	return overlaps
}

// hasTickResidue reports timing values still past the tick threshold
// after normalization ran.
func hasTickResidue(norm *normalize.Result) bool {
	for _, n := range norm.Notes {
		if n.Start > tickResidueThreshold || n.Duration > tickResidueThreshold {
			return true
		}
	}
	return false
}

func variance(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.Variance(xs, nil)
}

func coefficientOfVariation(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean := stat.Mean(xs, nil)
	if mean == 0 {
		return 0
	}
	return stat.StdDev(xs, nil) / mean
}

func penalty(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	return v
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
