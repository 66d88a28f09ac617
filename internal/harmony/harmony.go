// Package harmony extracts the chord progression of a composition:
// per-timestamp pitch sets, chord names from an interval table, and,
// when a key signature is available, Roman numerals, harmonic
// functions and cadence tags. The naming tables are self-contained;
// triads and common sevenths cover what the analyzers downstream need.
package harmony

import (
	"sort"

	"github.com/dygy/score-grep/internal/normalize"
)

// Chord is a simultaneous pitch set with its derived labels. RomanNumeral,
// Inversion and Function are only set when a key signature was supplied;
// absence means "not derivable", never a default.
type Chord struct {
	Start        float64      `json:"start"`
	Pitches      []int        `json:"pitches"`
	Name         string       `json:"name"`
	Root         int          `json:"root"` // pitch class of the named root, -1 for clusters
	RomanNumeral *string      `json:"roman_numeral,omitempty"`
	Inversion    *int         `json:"inversion,omitempty"`
	Function     *Function    `json:"function,omitempty"`
	Cadence      *CadenceKind `json:"cadence,omitempty"`
}

// Motion is the voice-leading measurement between two consecutive chords:
// shared pitch classes plus total semitone distance across nearest-voice
// pairs. A cheap proxy, not a full voice assignment.
type Motion struct {
	SharedPitchClasses int `json:"shared_pitch_classes"`
	SemitoneMotion     int `json:"semitone_motion"`
}

// Progression is the ordered chord sequence with its motion metrics.
// len(Motions) == len(Chords)-1 for two or more chords.
type Progression struct {
	Chords  []Chord  `json:"chords"`
	Motions []Motion `json:"motions,omitempty"`
}

// Analyze groups the flattened notes by start time and derives the
// progression. keySignature may be empty, in which case the key-relative
// fields stay nil. An empty note list yields an empty progression.
func Analyze(notes []normalize.Event, keySignature string) *Progression {
	prog := &Progression{}
	if len(notes) == 0 {
		return prog
	}

	key, haveKey := ParseKey(keySignature)

	i := 0
	for i < len(notes) {
		start := notes[i].Start
		seen := make(map[int]bool)
		for i < len(notes) && notes[i].Start == start {
			for _, p := range notes[i].Pitches {
				seen[p] = true
			}
			i++
		}
		pitches := make([]int, 0, len(seen))
		for p := range seen {
			pitches = append(pitches, p)
		}
		sort.Ints(pitches)

		chord := Chord{Start: start, Pitches: pitches}
		root, quality, _ := identify(pitches)
		chord.Root = root
		chord.Name = chordName(root, quality)

		if haveKey && root >= 0 {
			if numeral, ok := key.romanNumeral(root, quality); ok {
				chord.RomanNumeral = &numeral
			}
			if fn, ok := key.function(root); ok {
				chord.Function = &fn
			}
			if inv, ok := inversion(pitches, root, quality); ok {
				chord.Inversion = &inv
			}
		}
		prog.Chords = append(prog.Chords, chord)
	}

	if haveKey {
		tagCadences(prog.Chords)
	}

	for j := 1; j < len(prog.Chords); j++ {
		prog.Motions = append(prog.Motions, measureMotion(prog.Chords[j-1], prog.Chords[j]))
	}
	return prog
}

// inversion derives the chord position from the bass note: 0 when the
// root is in the bass, 1 for the third, 2 for the fifth, 3 for a seventh.
func inversion(pitches []int, root int, q Quality) (int, bool) {
	if len(pitches) == 0 || root < 0 || q == QualityCluster {
		return 0, false
	}
	bass := ((pitches[0] % 12) + 12) % 12
	interval := (bass - root + 12) % 12
	switch interval {
	case 0:
		return 0, true
	case 3, 4:
		return 1, true
	case 6, 7, 8:
		return 2, true
	case 9, 10, 11:
		return 3, true
	}
	return 0, false
}

// measureMotion counts shared pitch classes and sums, for every pitch of
// the arriving chord, the distance to its nearest pitch in the previous
// chord.
func measureMotion(from, to Chord) Motion {
	fromPCs := make(map[int]bool)
	for _, p := range from.Pitches {
		fromPCs[((p%12)+12)%12] = true
	}
	shared := 0
	for _, pc := range pitchClasses(to.Pitches) {
		if fromPCs[pc] {
			shared++
		}
	}

	total := 0
	for _, p := range to.Pitches {
		nearest := -1
		for _, q := range from.Pitches {
			d := p - q
			if d < 0 {
				d = -d
			}
			if nearest < 0 || d < nearest {
				nearest = d
			}
		}
		if nearest > 0 {
			total += nearest
		}
	}
	return Motion{SharedPitchClasses: shared, SemitoneMotion: total}
}
