package normalize

import (
	"testing"

	"github.com/dygy/score-grep/internal/score"
)

func comp(ppq float64, events ...score.Event) *score.Composition {
	return &score.Composition{
		PPQ:    ppq,
		Tracks: []score.Track{{Events: events}},
	}
}

func TestTickCorrection(t *testing.T) {
	t.Run("TickMultiples_Corrected", func(t *testing.T) {
		res := Flatten(comp(480,
			score.NoteEvent{Start: 1920, Duration: 480, Pitches: []int{60}, Velocity: 80},
		))

		if !res.UnitCorrected {
			t.Fatal("expected unit correction to trigger")
		}
		if got := res.Notes[0].Start; got != 4 {
			t.Errorf("Start = %v, want 4", got)
		}
		if got := res.Notes[0].Duration; got != 1 {
			t.Errorf("Duration = %v, want 1", got)
		}
	})

	t.Run("PlausibleBeats_Untouched", func(t *testing.T) {
		res := Flatten(comp(480,
			score.NoteEvent{Start: 3.5, Duration: 1, Pitches: []int{60}, Velocity: 80},
			score.NoteEvent{Start: 10, Duration: 2, Pitches: []int{64}, Velocity: 80},
		))

		if res.UnitCorrected {
			t.Fatal("unexpected unit correction")
		}
		if got := res.Notes[0].Start; got != 3.5 {
			t.Errorf("Start = %v, want 3.5", got)
		}
	})

	t.Run("LargeButNotMultiple_Untouched", func(t *testing.T) {
		// 1100 beats is past the threshold but not a tick multiple of 480
		res := Flatten(comp(480,
			score.NoteEvent{Start: 1100.3, Duration: 1, Pitches: []int{60}, Velocity: 80},
		))

		if res.UnitCorrected {
			t.Error("correction must require an integer ppq multiple")
		}
	})

	t.Run("CorrectionIsAllOrNothing", func(t *testing.T) {
		res := Flatten(comp(480,
			score.NoteEvent{Start: 0, Duration: 480, Pitches: []int{60}, Velocity: 80},
			score.NoteEvent{Start: 1920, Duration: 480, Pitches: []int{64}, Velocity: 80},
			score.PedalEvent{Start: 960, Duration: 960},
			score.SectionEvent{Start: 0, Label: "A"},
			score.TempoEvent{Start: 960, BPM: 120},
		))

		if !res.UnitCorrected {
			t.Fatal("expected unit correction to trigger")
		}
		if res.Notes[0].Duration != 1 {
			t.Errorf("first note duration = %v, want 1", res.Notes[0].Duration)
		}
		if res.Pedals[0].Start != 2 || res.Pedals[0].Duration != 2 {
			t.Errorf("pedal = %+v, want start 2 dur 2", res.Pedals[0])
		}
		if res.Tempos[0].Start != 2 {
			t.Errorf("tempo start = %v, want 2", res.Tempos[0].Start)
		}
	})
}

func TestFlattenOrdering(t *testing.T) {
	c := &score.Composition{
		PPQ: 480,
		Tracks: []score.Track{
			{Events: []score.Event{
				score.NoteEvent{Start: 2, Duration: 1, Pitches: []int{60}, Velocity: 80},
			}},
			{Events: []score.Event{
				score.NoteEvent{Start: 0, Duration: 1, Pitches: []int{48}, Velocity: 80},
				score.NoteEvent{Start: 2, Duration: 1, Pitches: []int{50}, Velocity: 80},
			}},
		},
	}
	res := Flatten(c)

	starts := []float64{0, 2, 2}
	tracks := []int{1, 0, 1}
	for i, n := range res.Notes {
		if n.Start != starts[i] || n.Track != tracks[i] {
			t.Errorf("note %d = (start %v, track %d), want (start %v, track %d)",
				i, n.Start, n.Track, starts[i], tracks[i])
		}
	}
}

func TestFlattenSortsPitches(t *testing.T) {
	res := Flatten(comp(480,
		score.NoteEvent{Start: 0, Duration: 1, Pitches: []int{67, 60, 64}, Velocity: 80},
	))

	want := []int{60, 64, 67}
	for i, p := range res.Notes[0].Pitches {
		if p != want[i] {
			t.Fatalf("pitches = %v, want %v", res.Notes[0].Pitches, want)
		}
	}
}

func TestLastEnd(t *testing.T) {
	res := Flatten(comp(480,
		score.NoteEvent{Start: 0, Duration: 2, Pitches: []int{60}, Velocity: 80},
		score.PedalEvent{Start: 1, Duration: 4},
	))

	if res.LastEnd != 5 {
		t.Errorf("LastEnd = %v, want 5 (pedal end)", res.LastEnd)
	}
}
