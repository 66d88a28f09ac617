package score

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// eventJSON is the wire shape of the Event union. The "type" tag selects
// the concrete kind; unused fields are omitted.
type eventJSON struct {
	Type     string  `json:"type"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration,omitempty"`
	Pitches  []int   `json:"pitches,omitempty"`
	Velocity int     `json:"velocity,omitempty"`
	BPM      float64 `json:"bpm,omitempty"`
	Label    string  `json:"label,omitempty"`
}

// MarshalJSON encodes the track's events with their type tags.
func (t Track) MarshalJSON() ([]byte, error) {
	out := struct {
		Name   string      `json:"name,omitempty"`
		Events []eventJSON `json:"events"`
	}{Name: t.Name, Events: make([]eventJSON, 0, len(t.Events))}

	for _, ev := range t.Events {
		switch e := ev.(type) {
		case NoteEvent:
			out.Events = append(out.Events, eventJSON{
				Type: "note", Start: e.Start, Duration: e.Duration,
				Pitches: e.Pitches, Velocity: e.Velocity,
			})
		case PedalEvent:
			out.Events = append(out.Events, eventJSON{Type: "pedal", Start: e.Start, Duration: e.Duration})
		case TempoEvent:
			out.Events = append(out.Events, eventJSON{Type: "tempo", Start: e.Start, BPM: e.BPM})
		case SectionEvent:
			out.Events = append(out.Events, eventJSON{Type: "section", Start: e.Start, Label: e.Label})
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes tagged events back into the closed union.
func (t *Track) UnmarshalJSON(data []byte) error {
	var in struct {
		Name   string      `json:"name"`
		Events []eventJSON `json:"events"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	t.Name = in.Name
	t.Events = make([]Event, 0, len(in.Events))
	for i, e := range in.Events {
		switch e.Type {
		case "note":
			t.Events = append(t.Events, NoteEvent{
				Start: e.Start, Duration: e.Duration,
				Pitches: e.Pitches, Velocity: e.Velocity,
			})
		case "pedal":
			t.Events = append(t.Events, PedalEvent{Start: e.Start, Duration: e.Duration})
		case "tempo":
			t.Events = append(t.Events, TempoEvent{Start: e.Start, BPM: e.BPM})
		case "section":
			t.Events = append(t.Events, SectionEvent{Start: e.Start, Label: e.Label})
		default:
			return fmt.Errorf("event %d: unknown type %q", i, e.Type)
		}
	}
	return nil
}

// DecodeComposition reads a JSON composition from r.
func DecodeComposition(r io.Reader) (*Composition, error) {
	var c Composition
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("decode composition: %w", err)
	}
	return &c, nil
}

// DecodeCompositionFile reads a JSON composition from a file.
func DecodeCompositionFile(path string) (*Composition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open composition: %w", err)
	}
	defer f.Close()
	return DecodeComposition(f)
}

// DecodeIntent reads a JSON musical intent annotation from r.
func DecodeIntent(r io.Reader) (*MusicalIntent, error) {
	var m MusicalIntent
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode intent: %w", err)
	}
	return &m, nil
}

// EncodeComposition writes c to w as indented JSON.
func EncodeComposition(w io.Writer, c *Composition) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
