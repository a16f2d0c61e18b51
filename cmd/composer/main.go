package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/Conceptual-Machines/composer-api/internal/agents/structure"
	"github.com/Conceptual-Machines/composer-api/internal/analysis"
	"github.com/Conceptual-Machines/composer-api/internal/app"
	"github.com/Conceptual-Machines/composer-api/internal/config"
	"github.com/Conceptual-Machines/composer-api/internal/corpus"
	"github.com/Conceptual-Machines/composer-api/internal/patterns"
	"github.com/Conceptual-Machines/composer-api/internal/score"
	"github.com/Conceptual-Machines/composer-api/internal/services"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "composer",
	Short: "Generate classical-style piano music from learned patterns",
	Long: `Composer learns melodic, rhythmic and harmonic patterns from a corpus of
piano sonatas and uses them to compose new pieces in sonata, rondo or
theme-and-variations form.

Output can be written as JSON, Standard MIDI File or MusicXML.`,
	Version: version,
}

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Compose a piece",
	Long: `Compose a new piece from the trained pattern profile.

The output format follows the file extension of --out (.mid, .musicxml,
.json). Without --out the score is printed to stdout as JSON.

Examples:
  composer compose --measures 64 --form rondo --out rondo.mid
  composer compose --measures 32 --seed 42 --out piece.musicxml`,
	RunE: runCompose,
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the section plan for a form",
	Long: `Print the sections, keys and characters the structure planner lays out.

Examples:
  composer plan --measures 96 --form sonata`,
	RunE: runPlan,
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Build a pattern profile from MIDI files",
	Long: `Analyze MIDI files (and optionally a period of the sonata corpus) and
write the resulting pattern profile.

Examples:
  composer train --patterns data/patterns.json --midi a.mid --midi b.mid
  composer train --patterns data/patterns.json --corpus middle --merge`,
	RunE: runTrain,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file.mid]",
	Short: "Summarize a MIDI file",
	Long: `Print pitch, interval, contour and phrase statistics for a MIDI file.

Examples:
  composer analyze sonata.mid
  composer analyze sonata.mid --patterns`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  `Start the composition API. Settings come from the environment (.env is loaded if present).`,
	RunE:  runServe,
}

var (
	measures     int
	formName     string
	seed         uint64
	outputPath   string
	patternsPath string
	midiFiles    []string
	corpusPeriod string
	corpusURL    string
	mergeProfile bool
	showPatterns bool
	topN         int
	port         string
)

func init() {
	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)

	// Compose flags
	composeCmd.Flags().IntVarP(&measures, "measures", "m", 32, "Total number of measures")
	composeCmd.Flags().StringVarP(&formName, "form", "f", "sonata", "Form (sonata, rondo, theme_variations)")
	composeCmd.Flags().Uint64VarP(&seed, "seed", "s", 0, "Random seed (default: configured seed)")
	composeCmd.Flags().StringVarP(&outputPath, "out", "o", "", "Output file (default: JSON on stdout)")
	composeCmd.Flags().StringVarP(&patternsPath, "patterns", "p", "", "Pattern profile (default: PATTERNS_PATH)")

	// Plan flags
	planCmd.Flags().IntVarP(&measures, "measures", "m", 32, "Total number of measures")
	planCmd.Flags().StringVarP(&formName, "form", "f", "sonata", "Form (sonata, rondo, theme_variations)")

	// Train flags
	trainCmd.Flags().StringVarP(&patternsPath, "patterns", "p", "", "Pattern profile to write (required)")
	trainCmd.Flags().StringArrayVar(&midiFiles, "midi", nil, "MIDI file to analyze (repeatable)")
	trainCmd.Flags().StringVar(&corpusPeriod, "corpus", "", "Also analyze a corpus period (early, middle, late)")
	trainCmd.Flags().StringVar(&corpusURL, "corpus-url", "", "Corpus base URL (default: bundled samples)")
	trainCmd.Flags().BoolVar(&mergeProfile, "merge", false, "Merge into the existing profile instead of replacing it")
	trainCmd.MarkFlagRequired("patterns")

	// Analyze flags
	analyzeCmd.Flags().BoolVar(&showPatterns, "patterns", false, "Also list the most common patterns")
	analyzeCmd.Flags().IntVarP(&topN, "top", "n", 5, "Entries per pattern category")

	// Serve flags
	serveCmd.Flags().StringVar(&port, "port", "", "Port to listen on (default: PORT)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	_ = godotenv.Load()
	return config.Load()
}

func runCompose(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	if patternsPath != "" {
		cfg.PatternsPath = patternsPath
	}
	if measures <= 0 || measures > cfg.MaxMeasures {
		return fmt.Errorf("measures must be between 1 and %d", cfg.MaxMeasures)
	}

	orchestrator, err := app.NewOrchestrator(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	form := structure.ParseForm(formName)
	var sc *score.Score
	if cmd.Flags().Changed("seed") {
		sc, err = orchestrator.ComposeWithSeed(ctx, measures, form, seed)
	} else {
		sc, err = orchestrator.Compose(ctx, measures, form)
	}
	if err != nil {
		return fmt.Errorf("composition failed: %w", err)
	}

	if outputPath == "" {
		return score.WriteJSON(sc, cmd.OutOrStdout())
	}
	if err := writeScore(sc, outputPath); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "🎼 %s: %d measures in %s, written to %s\n",
		form, sc.MeasureCount(), sc.Metadata.Key, outputPath)
	return nil
}

// formatForPath picks the export format from a file extension
func formatForPath(path string) score.Format {
	return score.ParseFormat(strings.ToLower(filepath.Ext(path)))
}

func writeScore(sc *score.Score, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := score.Write(sc, formatForPath(path), f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func runPlan(cmd *cobra.Command, _ []string) error {
	if measures <= 0 {
		return fmt.Errorf("measures must be positive")
	}
	form := structure.ParseForm(formName)
	plan := structure.Plan(measures, form)
	fmt.Fprintln(cmd.OutOrStdout(), renderPlan(form, plan))
	return nil
}

func runTrain(cmd *cobra.Command, _ []string) error {
	if len(midiFiles) == 0 && corpusPeriod == "" {
		return fmt.Errorf("nothing to train on: pass --midi or --corpus")
	}

	scores := make(map[string]*score.Score, len(midiFiles))
	for _, path := range midiFiles {
		sc, err := readMIDI(path)
		if err != nil {
			return err
		}
		scores[filepath.Base(path)] = sc
	}

	if corpusPeriod != "" {
		fromCorpus, err := loadCorpus(cmd.Context(), corpus.Period(corpusPeriod), corpusURL)
		if err != nil {
			return err
		}
		for name, sc := range fromCorpus {
			scores[name] = sc
		}
	}

	store := services.AnalyzeAll(scores)
	if mergeProfile {
		existing, err := patterns.Load(patternsPath)
		switch {
		case err == nil:
			existing.Merge(store)
			store = existing
		case !patterns.IsNotFound(err):
			return err
		}
	}

	if err := store.Save(patternsPath); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderProfile(store, len(scores), patternsPath))
	return nil
}

func loadCorpus(ctx context.Context, period corpus.Period, baseURL string) (map[string]*score.Score, error) {
	switch period {
	case corpus.PeriodEarly, corpus.PeriodMiddle, corpus.PeriodLate:
	default:
		return nil, fmt.Errorf("unknown corpus period %q (early, middle, late)", period)
	}
	if baseURL == "" {
		return corpus.Samples(), nil
	}
	cfg := loadConfig()
	return corpus.NewFetcher(baseURL, cfg.CorpusTimeout).FetchPeriod(ctx, period)
}

func readMIDI(path string) (*score.Score, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return decodeMIDI(path, f)
}

func decodeMIDI(name string, r io.Reader) (*score.Score, error) {
	sc, err := score.ReadMIDI(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if sc.Metadata.Title == "" {
		sc.Metadata.Title = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	return sc, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	sc, err := readMIDI(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderSummary(sc.Metadata.Title, analysis.Summarize(sc)))
	if showPatterns {
		fmt.Fprintln(out, renderPatterns(analysis.Analyze(sc), topN))
	}
	return nil
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()
	if port != "" {
		cfg.Port = port
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return app.Run(ctx, cfg, version)
}
