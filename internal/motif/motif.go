// Package motif finds short pitch patterns that recur across a
// composition. Candidate windows are grouped by a hashed pattern key, so
// construction is linear in the note count; there is no pairwise window
// comparison anywhere in this package.
package motif

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dygy/score-grep/internal/normalize"
)

// Kind distinguishes literal repeats from transposed ones.
type Kind string

const (
	KindExact      Kind = "exact"
	KindTransposed Kind = "transposed"
)

// Motif is a pitch pattern found at two or more positions.
// Pitches are raw MIDI numbers; octaves are not folded, so the same
// shape an octave apart is a transposed match, not an exact one.
type Motif struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Pattern     []int     `json:"pattern"`     // sorted; transposed patterns are shifted to min 0
	Occurrences []float64 `json:"occurrences"` // start beats, ascending
	MinDuration float64   `json:"min_duration"`
	MaxDuration float64   `json:"max_duration"`
	Importance  float64   `json:"importance"` // 0..1, relative to the densest motif
}

// Config holds the detector's tuning parameters.
type Config struct {
	WindowSize int     // notes per window
	MinLength  float64 // minimum window duration in beats
	MaxLength  float64 // maximum window duration in beats
}

// DefaultConfig returns the standard detector tuning.
func DefaultConfig() Config {
	return Config{WindowSize: 3, MinLength: 0.5, MaxLength: 8.0}
}

type occurrence struct {
	start    float64
	duration float64
	exactKey string
}

type group struct {
	pattern    []int
	occs       []occurrence
	firstStart float64
}

// Detect slides a fixed window of consecutive notes over the flattened
// sequence and reports every pattern seen at least twice. Output order is
// deterministic: by first occurrence, ties by pattern key. Fewer notes
// than one window yields an empty result, not an error.
func Detect(notes []normalize.Event, cfg Config) []Motif {
	if cfg.WindowSize < 1 || len(notes) < cfg.WindowSize {
		return nil
	}

	exact := make(map[string]*group)
	transposed := make(map[string]*group)
	// distinct exact keys per transposed group; a transposed motif is only
	// interesting when it spans more than one literal pattern
	transposedMembers := make(map[string]map[string]bool)

	for i := 0; i+cfg.WindowSize <= len(notes); i++ {
		window := notes[i : i+cfg.WindowSize]
		pattern := windowPattern(window)

		start := window[0].Start
		end := start
		for _, n := range window {
			if n.End() > end {
				end = n.End()
			}
		}
		dur := end - start
		if dur < cfg.MinLength || dur > cfg.MaxLength {
			continue
		}

		key := patternKey(pattern)
		occ := occurrence{start: start, duration: dur, exactKey: key}

		addOccurrence(exact, key, pattern, occ)

		shifted := make([]int, len(pattern))
		for j, p := range pattern {
			shifted[j] = p - pattern[0]
		}
		tkey := patternKey(shifted)
		addOccurrence(transposed, tkey, shifted, occ)
		if transposedMembers[tkey] == nil {
			transposedMembers[tkey] = make(map[string]bool)
		}
		transposedMembers[tkey][key] = true
	}

	var motifs []Motif
	for _, g := range exact {
		if len(g.occs) >= 2 {
			motifs = append(motifs, build(g, KindExact))
		}
	}
	for tkey, g := range transposed {
		// groups holding a single literal pattern are already covered above
		if len(g.occs) >= 2 && len(transposedMembers[tkey]) >= 2 {
			motifs = append(motifs, build(g, KindTransposed))
		}
	}

	sort.Slice(motifs, func(i, j int) bool {
		if motifs[i].Occurrences[0] != motifs[j].Occurrences[0] {
			return motifs[i].Occurrences[0] < motifs[j].Occurrences[0]
		}
		return patternKey(motifs[i].Pattern) < patternKey(motifs[j].Pattern)
	})

	rankImportance(motifs)
	for i := range motifs {
		motifs[i].ID = fmt.Sprintf("m%d", i+1)
	}
	return motifs
}

// windowPattern is the sorted set of distinct pitches in the window.
// Ordering, duration and octave register inside the window are ignored.
func windowPattern(window []normalize.Event) []int {
	seen := make(map[int]bool)
	for _, n := range window {
		for _, p := range n.Pitches {
			seen[p] = true
		}
	}
	pattern := make([]int, 0, len(seen))
	for p := range seen {
		pattern = append(pattern, p)
	}
	sort.Ints(pattern)
	return pattern
}

func patternKey(pattern []int) string {
	var sb strings.Builder
	for i, p := range pattern {
		if i > 0 {
			sb.WriteByte('-')
		}
		// fixed width keeps lexicographic order consistent with numeric order
		sb.WriteString(fmt.Sprintf("%03s", strconv.Itoa(p)))
	}
	return sb.String()
}

func addOccurrence(m map[string]*group, key string, pattern []int, occ occurrence) {
	g, ok := m[key]
	if !ok {
		g = &group{pattern: pattern, firstStart: occ.start}
		m[key] = g
	}
	g.occs = append(g.occs, occ)
}

func build(g *group, kind Kind) Motif {
	m := Motif{
		Kind:        kind,
		Pattern:     g.pattern,
		Occurrences: make([]float64, 0, len(g.occs)),
		MinDuration: g.occs[0].duration,
		MaxDuration: g.occs[0].duration,
	}
	for _, o := range g.occs {
		m.Occurrences = append(m.Occurrences, o.start)
		if o.duration < m.MinDuration {
			m.MinDuration = o.duration
		}
		if o.duration > m.MaxDuration {
			m.MaxDuration = o.duration
		}
	}
	sort.Float64s(m.Occurrences)
	return m
}

// rankImportance scores each motif by occurrence count weighted by the
// time it covers, normalized against the strongest motif in the piece.
func rankImportance(motifs []Motif) {
	var max float64
	raw := make([]float64, len(motifs))
	for i, m := range motifs {
		raw[i] = float64(len(m.Occurrences)) * m.MaxDuration
		if raw[i] > max {
			max = raw[i]
		}
	}
	if max == 0 {
		return
	}
	for i := range motifs {
		motifs[i].Importance = raw[i] / max
	}
}
