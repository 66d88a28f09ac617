// Package pipeline runs the full analysis chain over a composition:
// validation, normalization, the concurrent motif/phrase/harmony pass,
// form classification, quality scoring and idea aggregation.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/dygy/score-grep/internal/form"
	"github.com/dygy/score-grep/internal/harmony"
	"github.com/dygy/score-grep/internal/ideas"
	"github.com/dygy/score-grep/internal/motif"
	"github.com/dygy/score-grep/internal/normalize"
	"github.com/dygy/score-grep/internal/phrase"
	"github.com/dygy/score-grep/internal/progress"
	"github.com/dygy/score-grep/internal/quality"
	"github.com/dygy/score-grep/internal/score"
)

// Config tunes every analysis stage. Zero values fall back to defaults
// stage by stage, so partial configs from file or flags are fine.
type Config struct {
	WindowSize          int             `json:"window_size" mapstructure:"window_size"`
	MinMotifLength      float64         `json:"min_motif_length" mapstructure:"min_motif_length"`
	MaxMotifLength      float64         `json:"max_motif_length" mapstructure:"max_motif_length"`
	GapThreshold        float64         `json:"gap_threshold" mapstructure:"gap_threshold"`
	TypicalPhraseLength float64         `json:"typical_phrase_length" mapstructure:"typical_phrase_length"`
	Weights             quality.Weights `json:"weights" mapstructure:"weights"`
	MaxNotes            int             `json:"max_notes" mapstructure:"max_notes"`
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		WindowSize:          3,
		MinMotifLength:      0.5,
		MaxMotifLength:      8.0,
		GapThreshold:        2.0,
		TypicalPhraseLength: 4.0,
		Weights:             quality.DefaultWeights(),
		MaxNotes:            50000,
	}
}

// Advisory is a non-fatal notice attached to a result, such as an
// automatic unit correction or input truncation.
type Advisory struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the complete analysis output for one composition.
type Result struct {
	Title       string               `json:"title,omitempty"`
	Motifs      []motif.Motif        `json:"motifs"`
	Phrases     []phrase.Phrase      `json:"phrases"`
	Progression *harmony.Progression `json:"progression"`
	Form        form.Label           `json:"form"`
	Sections    []form.Span          `json:"sections,omitempty"`
	Quality     *quality.Report      `json:"quality"`
	KeyIdeas    []score.KeyIdea      `json:"key_ideas"`
	Suggestions []ideas.Suggestion   `json:"suggestions"`
	Advisories  []Advisory           `json:"advisories,omitempty"`
	Partial     bool                 `json:"partial,omitempty"`
}

// Analyze runs the pipeline. keySignature overrides the composition's
// own key when non-empty; intent and reporter may be nil. Analyzing the
// same composition twice with the same config yields identical results.
func Analyze(ctx context.Context, comp *score.Composition, keySignature string, intent *score.MusicalIntent, cfg Config, rep *progress.Reporter) (*Result, error) {
	cfg = withDefaults(cfg)

	rep.Stage("Validating composition")
	if err := score.Validate(comp); err != nil {
		return nil, fmt.Errorf("validating composition: %w", err)
	}

	rep.Stage("Normalizing events")
	norm := normalize.Flatten(comp)

	res := &Result{Title: comp.Title}
	if norm.UnitCorrected {
		res.Advisories = append(res.Advisories, Advisory{
			Code:    "unit_correction",
			Message: fmt.Sprintf("timing values looked like raw ticks; divided by PPQ %.0f", norm.PPQ),
		})
		rep.Warning("timing values looked like raw ticks; corrected to beats")
	}

	if cfg.MaxNotes > 0 && len(norm.Notes) > cfg.MaxNotes {
		res.Partial = true
		res.Advisories = append(res.Advisories, Advisory{
			Code:    "truncated",
			Message: fmt.Sprintf("composition has %d notes; analysis truncated to the first %d", len(norm.Notes), cfg.MaxNotes),
		})
		norm.Notes = norm.Notes[:cfg.MaxNotes]
		norm.LastEnd = lastEnd(norm)
		rep.Warning(fmt.Sprintf("truncated to %d notes", cfg.MaxNotes))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep.Stage("Detecting motifs, phrases and harmony")
	key := keySignature
	if key == "" {
		key = comp.KeySignature
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		res.Motifs = motif.Detect(norm.Notes, motif.Config{
			WindowSize: cfg.WindowSize,
			MinLength:  cfg.MinMotifLength,
			MaxLength:  cfg.MaxMotifLength,
		})
	}()
	go func() {
		defer wg.Done()
		res.Phrases = phrase.Segment(norm.Notes, norm.LastEnd, phrase.Config{
			GapThreshold:        cfg.GapThreshold,
			TypicalPhraseLength: cfg.TypicalPhraseLength,
		})
	}()
	go func() {
		defer wg.Done()
		res.Progression = harmony.Analyze(norm.Notes, key)
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res.Form = form.Classify(norm.Markers)
	res.Sections = form.Sections(norm.Markers, norm.LastEnd)

	rep.Stage("Scoring quality")
	res.Quality = quality.Score(quality.Inputs{
		Norm:        norm,
		Motifs:      res.Motifs,
		Phrases:     res.Phrases,
		Progression: res.Progression,
		Form:        res.Form,
		Sections:    res.Sections,
	}, cfg.Weights)

	rep.Stage("Aggregating key ideas")
	agg := ideas.Aggregate(res.Motifs, res.Phrases, intent)
	res.KeyIdeas = agg.KeyIdeas
	res.Suggestions = agg.Suggestions

	rep.Done("Analysis complete")
	return res, nil
}

// Stages is the number of progress stages Analyze reports.
const Stages = 5

func withDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = def.WindowSize
	}
	if cfg.MinMotifLength <= 0 {
		cfg.MinMotifLength = def.MinMotifLength
	}
	if cfg.MaxMotifLength <= 0 {
		cfg.MaxMotifLength = def.MaxMotifLength
	}
	if cfg.GapThreshold <= 0 {
		cfg.GapThreshold = def.GapThreshold
	}
	if cfg.TypicalPhraseLength <= 0 {
		cfg.TypicalPhraseLength = def.TypicalPhraseLength
	}
	if cfg.Weights.Technical+cfg.Weights.Musical+cfg.Weights.Structure <= 0 {
		cfg.Weights = def.Weights
	}
	if cfg.MaxNotes == 0 {
		cfg.MaxNotes = def.MaxNotes
	}
	return cfg
}

func lastEnd(norm *normalize.Result) float64 {
	var end float64
	for _, n := range norm.Notes {
		if e := n.End(); e > end {
			end = e
		}
	}
	for _, p := range norm.Pedals {
		if e := p.Start + p.Duration; e > end {
			end = e
		}
	}
	return end
}
