// Package ideas merges the composer-declared musical intent with the
// detected motifs and phrases into a single ranked list of key ideas,
// and proposes concrete development strategies for expansion points.
package ideas

import (
	"fmt"
	"sort"

	"github.com/dygy/score-grep/internal/motif"
	"github.com/dygy/score-grep/internal/phrase"
	"github.com/dygy/score-grep/internal/score"
)

// Suggestion is one actionable development strategy.
type Suggestion struct {
	ID          string   `json:"id"`
	Section     string   `json:"section,omitempty"`
	Strategy    string   `json:"strategy"`
	Description string   `json:"description"`
	Preserve    []string `json:"preserve,omitempty"`
}

// Result is the aggregated idea list plus suggestions.
type Result struct {
	KeyIdeas    []score.KeyIdea `json:"key_ideas"`
	Suggestions []Suggestion    `json:"suggestions"`
}

const (
	// Detected ideas overlapping a declared idea by more than half of the
	// shorter interval are folded into the declared one.
	dedupOverlapRatio = 0.5

	// Motifs at or above this importance get a development suggestion
	// unless an expansion point already claims them.
	developThreshold = 0.7
)

// Aggregate combines declared intent with detected structure. Declared
// ideas always win collisions with detected ones. intent may be nil.
func Aggregate(motifs []motif.Motif, phrases []phrase.Phrase, intent *score.MusicalIntent) *Result {
	res := &Result{
		KeyIdeas:    make([]score.KeyIdea, 0),
		Suggestions: make([]Suggestion, 0),
	}

	var declared []score.KeyIdea
	if intent != nil {
		declared = intent.KeyIdeas
	}
	res.KeyIdeas = append(res.KeyIdeas, declared...)

	auto := detectIdeas(motifs, phrases)
	for _, idea := range auto {
		if collides(idea, declared) {
			continue
		}
		res.KeyIdeas = append(res.KeyIdeas, idea)
	}

	// Declared ideas keep their given order; detected ones follow by start.
	sort.SliceStable(res.KeyIdeas[len(declared):], func(i, j int) bool {
		a, b := res.KeyIdeas[len(declared)+i], res.KeyIdeas[len(declared)+j]
		return a.Start < b.Start
	})

	res.Suggestions = suggest(motifs, intent)
	return res
}

func detectIdeas(motifs []motif.Motif, phrases []phrase.Phrase) []score.KeyIdea {
	var out []score.KeyIdea
	for _, m := range motifs {
		if len(m.Occurrences) == 0 {
			continue
		}
		out = append(out, score.KeyIdea{
			ID:          "idea-" + m.ID,
			Kind:        "motif",
			Start:       m.Occurrences[0],
			Duration:    m.MaxDuration,
			Description: fmt.Sprintf("recurring %d-note pattern (%d occurrences)", len(m.Pattern), len(m.Occurrences)),
			Importance:  m.Importance,
		})
	}

	var total float64
	for _, p := range phrases {
		total += p.Duration
	}
	for i, p := range phrases {
		if len(p.Events) == 0 {
			continue
		}
		importance := 0.0
		if total > 0 {
			importance = p.Duration / total
		}
		out = append(out, score.KeyIdea{
			ID:          fmt.Sprintf("idea-p%d", i+1),
			Kind:        "phrase",
			Start:       p.Start,
			Duration:    p.Duration,
			Description: fmt.Sprintf("phrase of %d note(s)", len(p.Events)),
			Importance:  importance,
		})
	}
	return out
}

func collides(idea score.KeyIdea, declared []score.KeyIdea) bool {
	for _, d := range declared {
		if d.Kind != idea.Kind {
			continue
		}
		shorter := idea.Duration
		if d.Duration < shorter {
			shorter = d.Duration
		}
		if shorter <= 0 {
			continue
		}
		if score.Overlap(idea.Start, idea.Duration, d.Start, d.Duration) > dedupOverlapRatio*shorter {
			return true
		}
	}
	return false
}

func suggest(motifs []motif.Motif, intent *score.MusicalIntent) []Suggestion {
	out := make([]Suggestion, 0)
	next := 1

	claimed := make(map[string]bool)
	if intent != nil {
		for _, ep := range intent.ExpansionPoints {
			for _, id := range ep.Preserve {
				claimed[id] = true
			}
			if ep.SuggestedLength <= ep.CurrentLength {
				continue
			}
			strategy := ep.Strategy
			if strategy == "" {
				strategy = "repetition_with_variation"
			}
			out = append(out, Suggestion{
				ID:       fmt.Sprintf("s%d", next),
				Section:  ep.Section,
				Strategy: strategy,
				Description: fmt.Sprintf("expand section %q from %.1f to %.1f beats using %s",
					ep.Section, ep.CurrentLength, ep.SuggestedLength, strategy),
				Preserve: ep.Preserve,
			})
			next++
		}
	}

	for _, m := range motifs {
		if m.Importance < developThreshold || claimed["idea-"+m.ID] {
			continue
		}
		out = append(out, Suggestion{
			ID:       fmt.Sprintf("s%d", next),
			Strategy: "motivic_development",
			Description: fmt.Sprintf("develop motif %s (%d occurrences) through sequence or variation",
				m.ID, len(m.Occurrences)),
			Preserve: []string{"idea-" + m.ID},
		})
		next++
	}
	return out
}
