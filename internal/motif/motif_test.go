package motif

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/dygy/score-grep/internal/normalize"
)

// chord places one three-pitch chord per call, spaced so window duration
// stays inside the default length bounds.
func chord(start float64, pitches ...int) normalize.Event {
	return normalize.Event{Start: start, Duration: 1, Pitches: pitches, Velocity: 80}
}

func melody(start float64, pitches ...int) []normalize.Event {
	notes := make([]normalize.Event, len(pitches))
	for i, p := range pitches {
		notes[i] = normalize.Event{Start: start + float64(i)*0.5, Duration: 0.5, Pitches: []int{p}, Velocity: 80}
	}
	return notes
}

func TestDetectExactRepeat(t *testing.T) {
	// spacing keeps boundary-straddling windows past MaxLength
	notes := append(melody(0, 60, 64, 67), melody(10, 60, 64, 67)...)

	motifs := Detect(notes, DefaultConfig())
	if len(motifs) != 1 {
		t.Fatalf("got %d motifs, want 1: %+v", len(motifs), motifs)
	}

	m := motifs[0]
	if m.Kind != KindExact {
		t.Errorf("Kind = %s, want exact", m.Kind)
	}
	if !reflect.DeepEqual(m.Pattern, []int{60, 64, 67}) {
		t.Errorf("Pattern = %v, want [60 64 67]", m.Pattern)
	}
	if !reflect.DeepEqual(m.Occurrences, []float64{0, 10}) {
		t.Errorf("Occurrences = %v, want [0 10]", m.Occurrences)
	}
	if m.ID != "m1" {
		t.Errorf("ID = %s, want m1", m.ID)
	}
}

func TestDetectTransposedRepeat(t *testing.T) {
	// {60,64,67} then {62,66,69}: same shape two semitones up. Neither
	// literal pattern repeats, so the only motif is the transposed one.
	notes := append(melody(0, 60, 64, 67), melody(10, 62, 66, 69)...)

	motifs := Detect(notes, DefaultConfig())
	if len(motifs) != 1 {
		t.Fatalf("got %d motifs, want exactly 1: %+v", len(motifs), motifs)
	}

	m := motifs[0]
	if m.Kind != KindTransposed {
		t.Errorf("Kind = %s, want transposed", m.Kind)
	}
	if !reflect.DeepEqual(m.Pattern, []int{0, 4, 7}) {
		t.Errorf("Pattern = %v, want root-relative [0 4 7]", m.Pattern)
	}
	if len(m.Occurrences) != 2 {
		t.Errorf("Occurrences = %v, want two", m.Occurrences)
	}
}

func TestDetectNoRepeats(t *testing.T) {
	// every 3-note window here has a distinct interval profile
	notes := melody(0, 60, 62, 64, 65, 71, 72)

	if got := Detect(notes, DefaultConfig()); len(got) != 0 {
		t.Errorf("got %d motifs from a non-repeating line: %+v", len(got), got)
	}
}

func TestDetectDegenerateInput(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		if got := Detect(nil, DefaultConfig()); len(got) != 0 {
			t.Errorf("got %d motifs from empty input", len(got))
		}
	})

	t.Run("FewerThanWindow", func(t *testing.T) {
		notes := melody(0, 60, 64)
		if got := Detect(notes, DefaultConfig()); len(got) != 0 {
			t.Errorf("got %d motifs from 2 notes", len(got))
		}
	})
}

func TestDetectDurationBounds(t *testing.T) {
	cfg := DefaultConfig()

	// each window spans 16 beats, past MaxLength
	sparse := []normalize.Event{
		chord(0, 60), chord(8, 64), chord(16, 67),
		chord(32, 60), chord(40, 64), chord(48, 67),
	}
	if got := Detect(sparse, cfg); len(got) != 0 {
		t.Errorf("got %d motifs from windows longer than MaxLength", len(got))
	}
}

func TestDetectDeterministic(t *testing.T) {
	notes := append(melody(0, 60, 64, 67), melody(10, 60, 64, 67)...)
	notes = append(notes, melody(20, 62, 66, 69)...)
	notes = append(notes, melody(30, 62, 66, 69)...)

	first := Detect(notes, DefaultConfig())
	for i := 0; i < 5; i++ {
		again := Detect(notes, DefaultConfig())
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differed:\nfirst: %+v\nagain: %+v", i, first, again)
		}
	}
}

func TestImportanceRange(t *testing.T) {
	notes := append(melody(0, 60, 64, 67), melody(10, 60, 64, 67)...)
	notes = append(notes, melody(20, 60, 64, 67)...)

	for _, m := range Detect(notes, DefaultConfig()) {
		if m.Importance < 0 || m.Importance > 1 {
			t.Errorf("motif %s importance %v outside [0,1]", m.ID, m.Importance)
		}
	}
}

// syntheticNotes builds a pseudo-random line where almost no window
// repeats, so the benchmark measures hashing cost, not match handling.
func syntheticNotes(n int) []normalize.Event {
	rng := rand.New(rand.NewSource(1))
	notes := make([]normalize.Event, n)
	for i := range notes {
		notes[i] = normalize.Event{
			Start:    float64(i) * 0.25,
			Duration: 0.25,
			Pitches:  []int{21 + rng.Intn(88)},
			Velocity: 64 + rng.Intn(32),
		}
	}
	return notes
}

// Detection is a single hash-grouped pass; time per note should stay
// flat as the input grows.
func BenchmarkDetect(b *testing.B) {
	for _, n := range []int{1000, 10000, 50000} {
		notes := syntheticNotes(n)
		b.Run(fmt.Sprintf("notes=%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				Detect(notes, DefaultConfig())
			}
		})
	}
}
