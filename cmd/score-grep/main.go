package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dygy/score-grep/internal/cache"
	"github.com/dygy/score-grep/internal/config"
	"github.com/dygy/score-grep/internal/midifile"
	"github.com/dygy/score-grep/internal/pipeline"
	"github.com/dygy/score-grep/internal/progress"
	"github.com/dygy/score-grep/internal/report"
	"github.com/dygy/score-grep/internal/score"
	"github.com/dygy/score-grep/internal/server"
)

var (
	version = "0.1.0"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "score-grep",
	Short: "Analyze symbolic scores for motifs, phrases, harmony and form",
	Long: `score-grep analyzes symbolic scores (MIDI or JSON) and reports
recurring motifs, phrase structure, harmonic progressions, musical
form and an overall quality score, plus concrete development
suggestions.

Pipeline: score → normalize → motifs / phrases / harmony → form → quality → ideas`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.Init(cfgFile)
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a score file",
	Long: `Analyze a MIDI or JSON score and print the analysis report.

Examples:
  score-grep analyze --input sonata.mid
  score-grep analyze -i piece.json --key Am --format json -o analysis.json
  score-grep analyze -i piece.mid --intent intent.json --min-quality 0.6`,
	RunE: runAnalyze,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the analysis HTTP server",
	Long: `Start the HTTP server that accepts score uploads and runs the
analysis pipeline asynchronously.

Example:
  score-grep serve --port 8080`,
	RunE: runServe,
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the analysis result cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached analysis results",
	RunE:  runCacheList,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached analysis results",
	RunE:  runCacheClear,
}

var (
	cfgFile string

	// analyze flags
	inputPath    string
	outputPath   string
	outputFormat string
	keySignature string
	intentPath   string
	minQuality   float64
	noCache      bool
	verbose      bool
	windowSize   int
	gapThreshold float64
	maxNotes     int

	// serve flags
	port int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/.score-grep.yaml)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	analyzeCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input score file (.mid, .midi or .json)")
	analyzeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default: stdout)")
	analyzeCmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format (text or json)")
	analyzeCmd.Flags().StringVarP(&keySignature, "key", "k", "", "Key signature (e.g. C, F#, Am); overrides the score's own")
	analyzeCmd.Flags().StringVar(&intentPath, "intent", "", "JSON file with declared musical intent")
	analyzeCmd.Flags().Float64Var(&minQuality, "min-quality", 0, "Exit non-zero if the overall score falls below this")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "Skip the result cache")
	analyzeCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show pipeline progress")
	analyzeCmd.Flags().IntVar(&windowSize, "window-size", 0, "Motif window size (default from config)")
	analyzeCmd.Flags().Float64Var(&gapThreshold, "gap-threshold", 0, "Phrase gap threshold in beats (default from config)")
	analyzeCmd.Flags().IntVar(&maxNotes, "max-notes", 0, "Note cap before truncation (default from config)")
	analyzeCmd.MarkFlagRequired("input")

	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	analysisCfg := cfg.Analysis
	if windowSize > 0 {
		analysisCfg.WindowSize = windowSize
	}
	if gapThreshold > 0 {
		analysisCfg.GapThreshold = gapThreshold
	}
	if maxNotes > 0 {
		analysisCfg.MaxNotes = maxNotes
	}

	if outputFormat != "text" && outputFormat != "json" {
		return fmt.Errorf("invalid format: %s (must be text or json)", outputFormat)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nInterrupted, cleaning up...")
		cancel()
	}()

	var intent *score.MusicalIntent
	if intentPath != "" {
		intent, err = loadIntent(intentPath)
		if err != nil {
			return err
		}
	}

	var resultCache *cache.ResultCache
	var cacheKey string
	useCache := cfg.Cache.Enabled && !noCache && intent == nil
	if useCache {
		dir, err := cfg.CacheDir()
		if err == nil {
			resultCache, err = cache.New(dir)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "cache unavailable: %v\n", err)
			resultCache = nil
		}
	}

	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	var res *pipeline.Result
	if resultCache != nil {
		cacheKey = cache.Key(raw, keySignature, analysisCfg)
		if cached, ok := resultCache.Get(cacheKey); ok {
			res = cached
		}
	}

	if res == nil {
		comp, err := loadComposition(inputPath)
		if err != nil {
			return err
		}

		var rep *progress.Reporter
		if verbose {
			rep = progress.New(os.Stderr, pipeline.Stages)
		}

		res, err = pipeline.Analyze(ctx, comp, keySignature, intent, analysisCfg, rep)
		if err != nil {
			return err
		}

		if resultCache != nil {
			if err := resultCache.Put(cacheKey, res); err != nil {
				fmt.Fprintf(os.Stderr, "caching result: %v\n", err)
			}
		}
	}

	out := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer f.Close()
		out = f
	}

	if outputFormat == "json" {
		err = report.WriteJSON(out, res)
	} else {
		err = report.WriteText(out, res)
	}
	if err != nil {
		return err
	}

	if minQuality > 0 && res.Quality.Overall < minQuality {
		return fmt.Errorf("quality %.2f below threshold %.2f", res.Quality.Overall, minQuality)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	srv := server.New(server.Config{
		Port:        port,
		JobTTL:      time.Duration(cfg.Server.JobTTLMinutes) * time.Minute,
		MaxUploadMB: cfg.Server.MaxUploadMB,
		Analysis:    cfg.Analysis,
	})
	return srv.Run()
}

func runCacheList(cmd *cobra.Command, args []string) error {
	c, err := openCache()
	if err != nil {
		return err
	}
	keys, err := c.List()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Println("cache is empty")
		return nil
	}
	for _, k := range keys {
		fmt.Println(k)
	}
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	c, err := openCache()
	if err != nil {
		return err
	}
	if err := c.Clear(); err != nil {
		return err
	}
	fmt.Println("cache cleared")
	return nil
}

func openCache() (*cache.ResultCache, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	dir, err := cfg.CacheDir()
	if err != nil {
		return nil, err
	}
	return cache.New(dir)
}

func loadComposition(path string) (*score.Composition, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mid", ".midi":
		return midifile.Load(path)
	case ".json":
		return score.DecodeCompositionFile(path)
	default:
		return nil, fmt.Errorf("unsupported input format: %s (use .mid, .midi or .json)", filepath.Ext(path))
	}
}

func loadIntent(path string) (*score.MusicalIntent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading intent: %w", err)
	}
	defer f.Close()
	return score.DecodeIntent(f)
}
