package score

import (
	"fmt"

	sgerr "github.com/dygy/score-grep/internal/errors"
)

// Validate checks the codec-supplied invariants: pitches in MIDI range,
// non-negative durations, events ordered by start within each track.
// The first violation is returned; nothing is repaired.
func Validate(c *Composition) error {
	for ti, track := range c.Tracks {
		prev := -1.0
		for ei, ev := range track.Events {
			start := ev.Onset()
			if start < prev {
				return sgerr.NewValidationError(ti, ei, "order",
					fmt.Sprintf("start %g before previous event at %g", start, prev))
			}
			prev = start

			switch e := ev.(type) {
			case NoteEvent:
				if e.Duration < 0 {
					return sgerr.NewValidationError(ti, ei, "duration",
						fmt.Sprintf("negative duration %g", e.Duration))
				}
				if len(e.Pitches) == 0 {
					return sgerr.NewValidationError(ti, ei, "pitch", "note event with no pitches")
				}
				for _, p := range e.Pitches {
					if p < MinPitch || p > MaxPitch {
						return sgerr.NewValidationError(ti, ei, "pitch",
							fmt.Sprintf("pitch %d outside MIDI range", p))
					}
				}
			case PedalEvent:
				if e.Duration < 0 {
					return sgerr.NewValidationError(ti, ei, "duration",
						fmt.Sprintf("negative duration %g", e.Duration))
				}
			case TempoEvent:
				if e.BPM <= 0 {
					return sgerr.NewValidationError(ti, ei, "bpm",
						fmt.Sprintf("non-positive tempo %g", e.BPM))
				}
			case SectionEvent:
				// any label is acceptable, including empty
			}
		}
	}
	return nil
}
