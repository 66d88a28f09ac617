package score

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	sgerr "github.com/dygy/score-grep/internal/errors"
)

func TestValidate(t *testing.T) {
	valid := func() *Composition {
		return &Composition{
			PPQ: 480,
			Tracks: []Track{{Events: []Event{
				NoteEvent{Start: 0, Duration: 1, Pitches: []int{60}, Velocity: 80},
				NoteEvent{Start: 1, Duration: 1, Pitches: []int{64}, Velocity: 80},
			}}},
		}
	}

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, Validate(valid()))
	})

	t.Run("NegativeDuration", func(t *testing.T) {
		c := valid()
		c.Tracks[0].Events[0] = NoteEvent{Start: 0, Duration: -1, Pitches: []int{60}, Velocity: 80}
		err := Validate(c)
		assert.Error(t, err)
		assert.True(t, sgerr.IsValidation(err))
	})

	t.Run("EmptyPitches", func(t *testing.T) {
		c := valid()
		c.Tracks[0].Events[0] = NoteEvent{Start: 0, Duration: 1, Velocity: 80}
		assert.True(t, sgerr.IsValidation(Validate(c)))
	})

	t.Run("PitchOutOfRange", func(t *testing.T) {
		c := valid()
		c.Tracks[0].Events[0] = NoteEvent{Start: 0, Duration: 1, Pitches: []int{128}, Velocity: 80}
		assert.True(t, sgerr.IsValidation(Validate(c)))
	})

	t.Run("OutOfOrderStarts", func(t *testing.T) {
		c := valid()
		c.Tracks[0].Events = []Event{
			NoteEvent{Start: 5, Duration: 1, Pitches: []int{60}, Velocity: 80},
			NoteEvent{Start: 0, Duration: 1, Pitches: []int{64}, Velocity: 80},
		}
		assert.True(t, sgerr.IsValidation(Validate(c)))
	})

	t.Run("NonPositiveTempo", func(t *testing.T) {
		c := valid()
		c.Tracks[0].Events = append([]Event{TempoEvent{Start: 0, BPM: 0}}, c.Tracks[0].Events...)
		assert.True(t, sgerr.IsValidation(Validate(c)))
	})
}

func TestValidationErrorDetail(t *testing.T) {
	c := &Composition{
		Tracks: []Track{
			{},
			{Events: []Event{
				NoteEvent{Start: 0, Duration: 1, Pitches: []int{60}, Velocity: 80},
				NoteEvent{Start: 1, Duration: -2, Pitches: []int{60}, Velocity: 80},
			}},
		},
	}

	err := Validate(c)
	assert.Error(t, err)

	var verr *sgerr.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, 1, verr.Track)
	assert.Equal(t, 1, verr.Event)
}

func TestCompositionJSONRoundTrip(t *testing.T) {
	c := &Composition{
		Title: "Round Trip",
		BPM:   96,
		PPQ:   480,
		Tracks: []Track{{
			Name: "piano",
			Events: []Event{
				NoteEvent{Start: 0, Duration: 1, Pitches: []int{60, 64}, Velocity: 80},
				PedalEvent{Start: 0.5, Duration: 2},
				TempoEvent{Start: 4, BPM: 110},
				SectionEvent{Start: 8, Label: "B"},
			},
		}},
	}

	var buf bytes.Buffer
	assert.NoError(t, EncodeComposition(&buf, c))

	got, err := DecodeComposition(&buf)
	assert.NoError(t, err)
	assert.Equal(t, c.Title, got.Title)
	assert.Equal(t, c.Tracks, got.Tracks)
}

func TestUnmarshalUnknownEventType(t *testing.T) {
	in := `{"tracks":[{"events":[{"type":"glissando","start":0}]}]}`
	_, err := DecodeComposition(strings.NewReader(in))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "glissando")
}

func TestDecodeIntent(t *testing.T) {
	in := `{
		"key_ideas": [{"id": "theme-a", "kind": "motif", "start": 0, "duration": 2, "importance": 0.9}],
		"expansion_points": [{"section": "B", "current_length": 8, "suggested_length": 16}]
	}`

	intent, err := DecodeIntent(strings.NewReader(in))
	assert.NoError(t, err)
	assert.Len(t, intent.KeyIdeas, 1)
	assert.Equal(t, "theme-a", intent.KeyIdeas[0].ID)
	assert.Equal(t, 16.0, intent.ExpansionPoints[0].SuggestedLength)
}

func TestOverlap(t *testing.T) {
	tests := []struct {
		name                       string
		aStart, aDur, bStart, bDur float64
		want                       float64
	}{
		{"Disjoint", 0, 2, 5, 2, 0},
		{"Touching", 0, 2, 2, 2, 0},
		{"Partial", 0, 4, 2, 4, 2},
		{"Contained", 0, 10, 2, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlap(tt.aStart, tt.aDur, tt.bStart, tt.bDur)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNoteCount(t *testing.T) {
	c := &Composition{Tracks: []Track{
		{Events: []Event{
			NoteEvent{Start: 0, Duration: 1, Pitches: []int{60}, Velocity: 80},
			PedalEvent{Start: 0, Duration: 1},
		}},
		{Events: []Event{
			NoteEvent{Start: 0, Duration: 1, Pitches: []int{48}, Velocity: 80},
		}},
	}}
	assert.Equal(t, 2, c.NoteCount())
}
