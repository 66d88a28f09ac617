// Package phrase segments the note timeline into contiguous phrases
// using gap and length heuristics. One forward pass, no backtracking.
package phrase

import "github.com/dygy/score-grep/internal/normalize"

// Phrase is a contiguous segment of the analyzed timeline. Phrases never
// overlap and together cover [0, LastEnd] exactly.
type Phrase struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Events   []int   `json:"events"` // indexes into the normalized note slice
}

// End returns the phrase end in beats.
func (p Phrase) End() float64 { return p.Start + p.Duration }

// Config holds the segmenter's tuning parameters.
type Config struct {
	GapThreshold        float64 // silence length that forces a boundary, in beats
	TypicalPhraseLength float64 // phrases are cut at twice this length
}

// DefaultConfig returns the standard segmentation tuning.
func DefaultConfig() Config {
	return Config{GapThreshold: 2.0, TypicalPhraseLength: 4.0}
}

// Segment walks the start-ordered notes once, opening a new phrase when
// the silence since the previous note exceeds the gap threshold or the
// running phrase reaches twice the typical length. Notes sharing a start
// time count as a single timeline position. The result always covers
// [0, lastEnd]; an empty composition yields one whole-timeline phrase.
func Segment(notes []normalize.Event, lastEnd float64, cfg Config) []Phrase {
	if len(notes) == 0 {
		return []Phrase{{Start: 0, Duration: lastEnd}}
	}

	var phrases []Phrase
	current := Phrase{Start: 0}
	prevEnd := 0.0

	i := 0
	for i < len(notes) {
		// collect the chord at this timeline position
		start := notes[i].Start
		j := i
		posEnd := prevEnd
		for j < len(notes) && notes[j].Start == start {
			if notes[j].End() > posEnd {
				posEnd = notes[j].End()
			}
			j++
		}

		if i > 0 {
			gap := start - prevEnd
			if gap > cfg.GapThreshold || start-current.Start >= 2*cfg.TypicalPhraseLength {
				current.Duration = start - current.Start
				phrases = append(phrases, current)
				current = Phrase{Start: start}
			}
		}
		for k := i; k < j; k++ {
			current.Events = append(current.Events, k)
		}
		prevEnd = posEnd
		i = j
	}

	if lastEnd < prevEnd {
		lastEnd = prevEnd
	}
	current.Duration = lastEnd - current.Start
	phrases = append(phrases, current)
	return phrases
}
