package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dygy/score-grep/internal/form"
	"github.com/dygy/score-grep/internal/harmony"
	"github.com/dygy/score-grep/internal/motif"
	"github.com/dygy/score-grep/internal/phrase"
	"github.com/dygy/score-grep/internal/pipeline"
	"github.com/dygy/score-grep/internal/quality"
)

func sampleResult() *pipeline.Result {
	numeral := "V"
	return &pipeline.Result{
		Title: "Sample",
		Motifs: []motif.Motif{{
			ID: "m1", Kind: motif.KindExact, Pattern: []int{60, 64, 67},
			Occurrences: []float64{0, 8}, Importance: 1,
		}},
		Phrases: []phrase.Phrase{{Start: 0, Duration: 8, Events: []int{0, 1}}},
		Progression: &harmony.Progression{Chords: []harmony.Chord{
			{Start: 0, Pitches: []int{67, 71, 74}, Name: "G", Root: 7, RomanNumeral: &numeral},
		}},
		Form: form.LabelBinary,
		Quality: &quality.Report{
			Overall: 0.72, Technical: 0.9, Musical: 0.6, Structure: 0.65,
			Issues: []quality.Issue{{Description: "velocity is nearly constant", Severity: quality.SeverityLow}},
		},
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sampleResult()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"Sample",
		"0.72",
		"binary",
		"m1",
		"velocity is nearly constant",
		"G",
		"V",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q:\n%s", want, out)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleResult()); err != nil {
		t.Fatal(err)
	}

	var decoded pipeline.Result
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if decoded.Title != "Sample" || decoded.Quality.Overall != 0.72 {
		t.Errorf("round-tripped result = %+v", decoded)
	}
}

func TestWriteTextUntitled(t *testing.T) {
	res := sampleResult()
	res.Title = ""
	res.Partial = true
	res.Advisories = []pipeline.Advisory{{Code: "truncated", Message: "analysis truncated"}}

	var buf bytes.Buffer
	if err := WriteText(&buf, res); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "(untitled)") {
		t.Error("missing untitled placeholder")
	}
	if !strings.Contains(out, "partial") {
		t.Error("missing partial note")
	}
	if !strings.Contains(out, "analysis truncated") {
		t.Error("missing advisory")
	}
}
