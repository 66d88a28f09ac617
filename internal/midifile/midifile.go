// Package midifile loads standard MIDI files into the score model.
// Timing is converted from ticks to beats at load time, so downstream
// stages always see beat units.
package midifile

import (
	"fmt"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"

	sgerr "github.com/dygy/score-grep/internal/errors"
	"github.com/dygy/score-grep/internal/score"
)

const sustainController = 64

// Load reads a MIDI file and converts it to a Composition with timing
// in beats. Only metric (ticks per quarter) time format is supported.
func Load(path string) (*score.Composition, error) {
	mf, err := smf.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading MIDI file: %w", err)
	}

	ticks, ok := mf.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, fmt.Errorf("%w: %v", sgerr.ErrNoTimeFormat, mf.TimeFormat)
	}
	ppq := float64(ticks)

	comp := &score.Composition{
		PPQ:           ppq,
		TimeSignature: score.TimeSignature{Numerator: 4, Denominator: 4},
	}

	for ti, events := range mf.Tracks {
		track := convertTrack(events, ppq)
		if comp.Title == "" && track.Name != "" && ti == 0 {
			comp.Title = track.Name
		}
		if len(track.Events) > 0 || track.Name != "" {
			comp.Tracks = append(comp.Tracks, track)
		}
	}

	if len(comp.Tracks) == 0 {
		return nil, fmt.Errorf("%w: no playable tracks", sgerr.ErrUnsupportedFormat)
	}
	return comp, nil
}

type pendingNote struct {
	start    float64
	velocity uint8
}

func convertTrack(events smf.Track, ppq float64) score.Track {
	var track score.Track

	pending := make(map[uint8]pendingNote)
	var pedalDown float64 = -1
	var absTicks int64
	var lastBeat float64

	for _, event := range events {
		absTicks += int64(event.Delta)
		beat := float64(absTicks) / ppq
		lastBeat = beat

		var channel, key, velocity, controller, value uint8
		var bpm float64
		var text string

		msg := event.Message
		switch {
		case msg.GetNoteOn(&channel, &key, &velocity) && velocity > 0:
			if p, held := pending[key]; held {
				track.Events = append(track.Events, closedNote(key, p, beat))
			}
			pending[key] = pendingNote{start: beat, velocity: velocity}

		case msg.GetNoteEnd(&channel, &key):
			if p, held := pending[key]; held {
				track.Events = append(track.Events, closedNote(key, p, beat))
				delete(pending, key)
			}

		case msg.GetControlChange(&channel, &controller, &value) && controller == sustainController:
			if value >= 64 {
				if pedalDown < 0 {
					pedalDown = beat
				}
			} else if pedalDown >= 0 {
				track.Events = append(track.Events, score.PedalEvent{Start: pedalDown, Duration: beat - pedalDown})
				pedalDown = -1
			}

		case msg.GetMetaTempo(&bpm):
			track.Events = append(track.Events, score.TempoEvent{Start: beat, BPM: bpm})

		case msg.GetMetaMarker(&text):
			track.Events = append(track.Events, score.SectionEvent{Start: beat, Label: text})

		case msg.GetMetaTrackName(&text):
			track.Name = text
		}
	}

	// Unterminated notes and pedals close at the end of the track.
	// Drain in key order so same-onset notes land deterministically.
	keys := make([]int, 0, len(pending))
	for key := range pending {
		keys = append(keys, int(key))
	}
	sort.Ints(keys)
	for _, key := range keys {
		track.Events = append(track.Events, closedNote(uint8(key), pending[uint8(key)], lastBeat))
	}
	if pedalDown >= 0 && lastBeat > pedalDown {
		track.Events = append(track.Events, score.PedalEvent{Start: pedalDown, Duration: lastBeat - pedalDown})
	}

	sort.SliceStable(track.Events, func(i, j int) bool {
		return track.Events[i].Onset() < track.Events[j].Onset()
	})
	return track
}

func closedNote(key uint8, p pendingNote, end float64) score.NoteEvent {
	return score.NoteEvent{
		Start:    p.start,
		Duration: end - p.start,
		Pitches:  []int{int(key)},
		Velocity: int(p.velocity),
	}
}
