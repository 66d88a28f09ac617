package phrase

import (
	"testing"

	"github.com/dygy/score-grep/internal/normalize"
)

func note(start, dur float64, pitch int) normalize.Event {
	return normalize.Event{Start: start, Duration: dur, Pitches: []int{pitch}, Velocity: 80}
}

// checkCoverage asserts the phrases tile [0, lastEnd] without gaps or overlap.
func checkCoverage(t *testing.T, phrases []Phrase, lastEnd float64) {
	t.Helper()
	if len(phrases) == 0 {
		t.Fatal("no phrases")
	}
	if phrases[0].Start != 0 {
		t.Errorf("first phrase starts at %v, want 0", phrases[0].Start)
	}
	for i := 1; i < len(phrases); i++ {
		if phrases[i].Start != phrases[i-1].End() {
			t.Errorf("gap between phrase %d (ends %v) and %d (starts %v)",
				i-1, phrases[i-1].End(), i, phrases[i].Start)
		}
	}
	if end := phrases[len(phrases)-1].End(); end < lastEnd {
		t.Errorf("last phrase ends at %v, want >= %v", end, lastEnd)
	}
}

func TestSegmentGapBoundary(t *testing.T) {
	notes := []normalize.Event{
		note(0, 1, 60),
		note(1, 1, 62),
		// 3-beat silence, past the 2-beat gap threshold
		note(5, 1, 64),
		note(6, 1, 65),
	}

	phrases := Segment(notes, 7, DefaultConfig())
	if len(phrases) != 2 {
		t.Fatalf("got %d phrases, want 2: %+v", len(phrases), phrases)
	}
	if phrases[1].Start != 5 {
		t.Errorf("second phrase starts at %v, want 5", phrases[1].Start)
	}
	checkCoverage(t, phrases, 7)
}

func TestSegmentLengthBoundary(t *testing.T) {
	// continuous quarter notes: no gaps, so only the length rule can cut
	var notes []normalize.Event
	for i := 0; i < 20; i++ {
		notes = append(notes, note(float64(i), 1, 60+i%12))
	}

	phrases := Segment(notes, 20, DefaultConfig())
	if len(phrases) < 2 {
		t.Fatalf("got %d phrases, want length rule to cut at least once", len(phrases))
	}
	// default typical length 4 means cuts at twice that
	if phrases[0].Duration != 8 {
		t.Errorf("first phrase duration = %v, want 8", phrases[0].Duration)
	}
	checkCoverage(t, phrases, 20)
}

func TestSegmentChordCountsOnce(t *testing.T) {
	// three simultaneous notes are one timeline position, not a phrase of three
	notes := []normalize.Event{
		note(0, 1, 60),
		note(0, 1, 64),
		note(0, 1, 67),
	}

	phrases := Segment(notes, 4, DefaultConfig())
	if len(phrases) != 1 {
		t.Fatalf("got %d phrases, want 1", len(phrases))
	}
	if len(phrases[0].Events) != 3 {
		t.Errorf("phrase holds %d events, want all 3", len(phrases[0].Events))
	}
	checkCoverage(t, phrases, 4)
}

func TestSegmentEmptyTimeline(t *testing.T) {
	phrases := Segment(nil, 16, DefaultConfig())
	if len(phrases) != 1 {
		t.Fatalf("got %d phrases, want 1 whole-timeline phrase", len(phrases))
	}
	if phrases[0].Start != 0 || phrases[0].Duration != 16 {
		t.Errorf("phrase = %+v, want [0,16)", phrases[0])
	}
}

func TestSegmentEveryNoteAssigned(t *testing.T) {
	notes := []normalize.Event{
		note(0, 1, 60), note(1, 0.5, 62), note(4, 1, 64),
		note(8, 2, 65), note(11, 1, 67), note(15, 1, 69),
	}

	phrases := Segment(notes, 16, DefaultConfig())
	assigned := make(map[int]bool)
	for _, p := range phrases {
		for _, idx := range p.Events {
			if assigned[idx] {
				t.Errorf("note %d assigned twice", idx)
			}
			assigned[idx] = true
		}
	}
	if len(assigned) != len(notes) {
		t.Errorf("%d of %d notes assigned", len(assigned), len(notes))
	}
	checkCoverage(t, phrases, 16)
}
