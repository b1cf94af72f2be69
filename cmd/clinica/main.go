package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinica/clinica/internal/config"
	"github.com/clinica/clinica/internal/domain/diagnosis"
	"github.com/clinica/clinica/internal/domain/knowledge"
	"github.com/clinica/clinica/internal/domain/stats"
	"github.com/clinica/clinica/internal/domain/visit"
	"github.com/clinica/clinica/internal/platform/textnorm"
	"github.com/clinica/clinica/pkg/pagination"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "clinica",
		Short:         "Clinic symptom-to-diagnosis assistant",
		SilenceUsage:  true,
	}
	rootCmd.PersistentFlags().String("knowledge-base", "", "Path to the condition catalog (overrides KNOWLEDGE_BASE_PATH)")

	rootCmd.AddCommand(diagnoseCmd())
	rootCmd.AddCommand(batchCmd())
	rootCmd.AddCommand(catalogCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(versionCmd())
	return rootCmd
}

// app is the per-invocation wiring shared by the subcommands.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	kb      *knowledge.KnowledgeBase
	matcher *diagnosis.Matcher
}

func newLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.ResolvedLogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(w).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
	}
	return logger.Level(level)
}

// loadConfig reads the environment and applies the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if path, _ := cmd.Flags().GetString("knowledge-base"); path != "" {
		cfg.KnowledgeBasePath = path
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())

	kb := knowledge.Load(cfg.KnowledgeBasePath, logger)

	var opts []diagnosis.Option
	if cfg.NormalizeSymptoms {
		logger.Info().Msg("symptom normalisation enabled")
		opts = append(opts, diagnosis.WithNormalizer(textnorm.Normalize))
	}
	return &app{
		cfg:     cfg,
		logger:  logger,
		kb:      kb,
		matcher: diagnosis.NewMatcher(kb, opts...),
	}, nil
}

// openRecorder returns a recorder appending to path, or nil when path is
// empty. The returned close function is always safe to call.
func openRecorder(path string) (visit.Recorder, func() error, error) {
	if path == "" {
		return nil, func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open visit log: %w", err)
	}
	return visit.NewJSONLRecorder(f), f.Close, nil
}

func readVisits(path string) ([]*visit.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open visit log: %w", err)
	}
	defer f.Close()
	return visit.ReadJSONL(f)
}

func diagnoseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diagnose [symptom...]",
		Short: "Suggest the best-matching condition for reported symptoms",
		Example: `  clinica diagnose "febre alta" calafrios
  clinica diagnose --patient 3 --record visits.jsonl "falta de ar" tosse`,
		RunE: func(cmd *cobra.Command, args []string) error {
			patientID, _ := cmd.Flags().GetInt64("patient")
			notes, _ := cmd.Flags().GetString("notes")
			explain, _ := cmd.Flags().GetBool("explain")
			recordPath, _ := cmd.Flags().GetString("record")

			a, err := setup(cmd)
			if err != nil {
				return err
			}
			rec, closeRec, err := openRecorder(recordPath)
			if err != nil {
				return err
			}
			defer closeRec()

			out := cmd.OutOrStdout()
			if explain {
				printCandidates(out, a.matcher.Rank(args))
			}

			svc := diagnosis.NewService(a.matcher, rec, a.logger)
			outcome, err := svc.Diagnose(cmd.Context(), diagnosis.Request{
				PatientID: patientID,
				Symptoms:  args,
				Notes:     notes,
			})
			if err != nil {
				return err
			}
			if !outcome.Matched {
				fmt.Fprintln(out, "no diagnosis: no condition matched the reported symptoms well enough")
				return nil
			}
			return printJSON(out, outcome)
		},
	}
	cmd.Flags().Int64("patient", 0, "Patient identifier stored with the visit")
	cmd.Flags().String("notes", "", "Free-text observations stored with the visit")
	cmd.Flags().Bool("explain", false, "Print the score of every condition")
	cmd.Flags().String("record", "", "Append the visit to this JSON-lines file when a condition matches")
	return cmd
}

func batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <requests.jsonl|->",
		Short: "Diagnose a file of requests and print statistics",
		Long: `Each input line is a JSON object {"patient_id": 1, "symptoms": [...], "notes": "..."}.
Malformed lines are logged and skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recordPath, _ := cmd.Flags().GetString("record")
			top, _ := cmd.Flags().GetInt("top")
			asJSON, _ := cmd.Flags().GetBool("json")

			a, err := setup(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("top") {
				top = a.cfg.StatsTopN
			}

			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open requests: %w", err)
				}
				defer f.Close()
				in = f
			}

			rec, closeRec, err := openRecorder(recordPath)
			if err != nil {
				return err
			}
			defer closeRec()

			runID := uuid.New()
			logger := a.logger.With().Str("run_id", runID.String()).Logger()
			svc := diagnosis.NewService(a.matcher, rec, logger)

			start := time.Now()
			res, err := runBatch(cmd.Context(), svc, in, logger)
			if err != nil {
				logger.Error().Err(err).Dur("latency", time.Since(start)).Msg("batch aborted")
				return err
			}

			summary := res.tally.Summary(top)
			logger.Info().
				Int("analysed", summary.Analysed).
				Int("matched", summary.Matched).
				Int("skipped", res.skipped).
				Dur("latency", time.Since(start)).
				Msg("batch complete")
			if asJSON {
				return printJSON(cmd.OutOrStdout(), struct {
					RunID   uuid.UUID `json:"run_id"`
					Skipped int       `json:"skipped"`
					stats.Summary
				}{runID, res.skipped, summary})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Run %s\n", runID)
			printSummary(cmd.OutOrStdout(), summary, res.skipped)
			return nil
		},
	}
	cmd.Flags().String("record", "", "Append matched visits to this JSON-lines file")
	cmd.Flags().Int("top", stats.DefaultTop, "Number of diagnoses to list (default from STATS_TOP_N)")
	cmd.Flags().Bool("json", false, "Print the summary as JSON")
	return cmd
}

type batchResult struct {
	tally   *stats.Tally
	skipped int
}

// runBatch diagnoses each request line of in. Undecodable lines are skipped;
// a recorder failure aborts the run.
func runBatch(ctx context.Context, svc *diagnosis.Service, in io.Reader, logger zerolog.Logger) (*batchResult, error) {
	res := &batchResult{tally: &stats.Tally{}}
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var req diagnosis.Request
		if err := json.Unmarshal([]byte(text), &req); err != nil {
			logger.Warn().Err(err).Int("line", line).Msg("skipping malformed request")
			res.skipped++
			continue
		}
		outcome, err := svc.Diagnose(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if !outcome.Matched {
			res.tally.Miss()
			continue
		}
		v := outcome.Visit
		if v == nil {
			v = visit.NewRecord(req.PatientID, req.Symptoms, outcome.Result.Finding(), req.Notes)
		}
		res.tally.Add(v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read requests: %w", err)
	}
	return res, nil
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the condition catalog",
	}

	// catalog list
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog conditions in match order",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")
			asJSON, _ := cmd.Flags().GetBool("json")

			a, err := setup(cmd)
			if err != nil {
				return err
			}

			conds := a.kb.Conditions()
			pg := pagination.New(limit, offset)
			start, end := pg.Bounds(len(conds))
			page := conds[start:end]

			if asJSON {
				return printJSON(cmd.OutOrStdout(), pagination.NewResponse(page, len(conds), pg.Limit, pg.Offset))
			}
			printConditions(cmd.OutOrStdout(), page)
			if pg.HasNext(len(conds)) {
				fmt.Fprintf(cmd.OutOrStdout(), "... %d more, use --offset %d\n", len(conds)-end, pg.NextOffset())
			}
			return nil
		},
	}
	listCmd.Flags().Int("limit", pagination.DefaultLimit, "Maximum number of conditions to print")
	listCmd.Flags().Int("offset", 0, "Number of conditions to skip")
	listCmd.Flags().Bool("json", false, "Print the page as JSON")
	cmd.AddCommand(listCmd)

	// catalog validate
	validateCmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "Strictly parse a catalog and report problems",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			path := cfg.KnowledgeBasePath
			if len(args) == 1 {
				path = args[0]
			}

			kb, issues, err := knowledge.LoadFile(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, is := range issues {
				fmt.Fprintf(out, "WARN  %s\n", is)
			}
			scorable := diagnosis.NewMatcher(kb).Size()
			fmt.Fprintf(out, "%s: %d categories, %d conditions (%d scorable), %d issue(s)\n",
				path, len(kb.CategoryNames()), kb.Len(), scorable, len(issues))
			return nil
		},
	}
	cmd.AddCommand(validateCmd)

	// catalog symptoms
	cmd.AddCommand(&cobra.Command{
		Use:   "symptoms",
		Short: "List every symptom label the catalog recognises",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			for _, s := range a.kb.Vocabulary() {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	})

	return cmd
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <visits.jsonl>",
		Short: "Show the recorded visits of a patient, most recent first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patientID, _ := cmd.Flags().GetInt64("patient")
			asJSON, _ := cmd.Flags().GetBool("json")

			records, err := readVisits(args[0])
			if err != nil {
				return err
			}
			visits := visit.ByPatient(records, patientID)
			if asJSON {
				if visits == nil {
					visits = []*visit.Record{}
				}
				return printJSON(cmd.OutOrStdout(), visits)
			}
			printVisits(cmd.OutOrStdout(), patientID, visits)
			return nil
		},
	}
	cmd.Flags().Int64("patient", 0, "Patient identifier")
	cmd.Flags().Bool("json", false, "Print visits as JSON")
	_ = cmd.MarkFlagRequired("patient")
	return cmd
}

func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <visits.jsonl>",
		Short: "Summarise a visit log by urgency and diagnosis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			top, _ := cmd.Flags().GetInt("top")
			asJSON, _ := cmd.Flags().GetBool("json")

			records, err := readVisits(args[0])
			if err != nil {
				return err
			}
			summary := stats.FromRecords(records).Summary(top)
			if asJSON {
				return printJSON(cmd.OutOrStdout(), summary)
			}
			printSummary(cmd.OutOrStdout(), summary, 0)
			return nil
		},
	}
	cmd.Flags().Int("top", stats.DefaultTop, "Number of diagnoses to list")
	cmd.Flags().Bool("json", false, "Print the summary as JSON")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
