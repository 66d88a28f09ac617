// Package report renders analysis results as human-readable text or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dygy/score-grep/internal/pipeline"
)

// WriteJSON writes the result as indented JSON.
func WriteJSON(w io.Writer, res *pipeline.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return nil
}

// WriteText renders a terminal-friendly summary.
func WriteText(w io.Writer, res *pipeline.Result) error {
	var b strings.Builder

	title := res.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(&b, "Analysis: %s\n", title)
	if res.Partial {
		fmt.Fprintf(&b, "  (partial: input was truncated)\n")
	}
	for _, a := range res.Advisories {
		fmt.Fprintf(&b, "  note: %s\n", a.Message)
	}

	fmt.Fprintf(&b, "\nQuality: %.2f (technical %.2f, musical %.2f, structure %.2f)\n",
		res.Quality.Overall, res.Quality.Technical, res.Quality.Musical, res.Quality.Structure)
	for _, issue := range res.Quality.Issues {
		fmt.Fprintf(&b, "  [%s] %s\n", issue.Severity, issue.Description)
	}

	fmt.Fprintf(&b, "\nForm: %s\n", res.Form)
	for _, s := range res.Sections {
		fmt.Fprintf(&b, "  %-12s %.1f - %.1f\n", s.Label, s.Start, s.Start+s.Duration)
	}

	fmt.Fprintf(&b, "\nMotifs: %d\n", len(res.Motifs))
	for _, m := range res.Motifs {
		fmt.Fprintf(&b, "  %-4s %-10s %v  x%d  importance %.2f\n",
			m.ID, m.Kind, m.Pattern, len(m.Occurrences), m.Importance)
	}

	fmt.Fprintf(&b, "\nPhrases: %d\n", len(res.Phrases))
	for i, p := range res.Phrases {
		fmt.Fprintf(&b, "  %2d. %.1f - %.1f (%d notes)\n", i+1, p.Start, p.End(), len(p.Events))
	}

	if prog := res.Progression; prog != nil && len(prog.Chords) > 0 {
		fmt.Fprintf(&b, "\nHarmony: %d chords\n", len(prog.Chords))
		for _, c := range prog.Chords {
			line := fmt.Sprintf("  %6.1f  %-14s", c.Start, c.Name)
			if c.RomanNumeral != nil {
				line += fmt.Sprintf("  %-6s", *c.RomanNumeral)
			}
			if c.Cadence != nil {
				line += fmt.Sprintf("  [%s cadence]", *c.Cadence)
			}
			b.WriteString(line + "\n")
		}
	}

	if len(res.KeyIdeas) > 0 {
		fmt.Fprintf(&b, "\nKey ideas:\n")
		for _, k := range res.KeyIdeas {
			fmt.Fprintf(&b, "  %-10s %-7s at %.1f  importance %.2f  %s\n",
				k.ID, k.Kind, k.Start, k.Importance, k.Description)
		}
	}

	if len(res.Suggestions) > 0 {
		fmt.Fprintf(&b, "\nSuggestions:\n")
		for _, s := range res.Suggestions {
			fmt.Fprintf(&b, "  %-4s %s\n", s.ID, s.Description)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
