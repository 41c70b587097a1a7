package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/derekprior/leaguesim/internal/config"
	"github.com/derekprior/leaguesim/internal/excel"
	"github.com/derekprior/leaguesim/internal/ranked"
	"github.com/derekprior/leaguesim/internal/season"
	"github.com/derekprior/leaguesim/internal/validator"
)

const defaultConfigFile = "config.yaml"

func resolveConfigPath(configFlag string) (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile, nil
	}
	return "", fmt.Errorf("no config file found. Either create %s in the current directory or pass --config", defaultConfigFile)
}

func main() {
	_ = godotenv.Load(".env")

	logger := logrus.New()
	var verbose, logJSON bool

	rootCmd := &cobra.Command{
		Use:   "leaguesim",
		Short: "Multi-season football league and tournament simulator",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetOutput(os.Stderr)
			logger.SetLevel(logrus.WarnLevel)
			if verbose {
				logger.SetLevel(logrus.DebugLevel)
			}
			if logJSON {
				logger.SetFormatter(&logrus.JSONFormatter{})
			}
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log simulation progress")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Log as JSON")

	var initOutputPath string
	initCmd := &cobra.Command{
		Use:          "init",
		Short:        "Create a starter config.yaml in the current directory",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(initOutputPath)
		},
	}
	initCmd.Flags().StringVarP(&initOutputPath, "output", "o", defaultConfigFile, "Output path for the config file")

	seasonCmd := &cobra.Command{
		Use:   "season",
		Short: "Simulate and validate seasons",
	}

	var configFile string
	seasonCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: config.yaml in current directory)")

	var simOpts simulateOptions
	simulateCmd := &cobra.Command{
		Use:          "simulate",
		Short:        "Simulate one or more seasons of the configured pyramid",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seasons") {
				cfg.Season.Seasons = simOpts.seasons
			}
			if cmd.Flags().Changed("seed") {
				cfg.Season.Seed = simOpts.seed
			}
			return runSimulate(cmd.Context(), cfg, logger, simOpts)
		},
	}
	simulateCmd.Flags().StringVarP(&simOpts.output, "output", "o", "season.xlsx", "Output Excel file path")
	simulateCmd.Flags().IntVar(&simOpts.seasons, "seasons", 1, "Number of seasons to simulate")
	simulateCmd.Flags().Int64Var(&simOpts.seed, "seed", 0, "Random seed")
	simulateCmd.Flags().IntVar(&simOpts.trials, "projections", 0, "Also add ranked projections for every tier with this many trials")

	validateCmd := &cobra.Command{
		Use:          "validate <season.xlsx>",
		Short:        "Check a season workbook's tables, fixtures and movements",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			return runValidate(configPath, args[0])
		},
	}

	var rankedOpts rankedOptions
	rankedCmd := &cobra.Command{
		Use:          "ranked",
		Short:        "Run a tier many times and report finishing probabilities",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(rankedOpts.config)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("trials") {
				cfg.Ranked.Trials = rankedOpts.trials
			}
			if flags.Changed("workers") {
				cfg.Ranked.Workers = rankedOpts.workers
			}
			if flags.Changed("top") {
				cfg.Ranked.Top = rankedOpts.top
			}
			if flags.Changed("seed") {
				cfg.Season.Seed = rankedOpts.seed
			}
			if flags.Changed("tier") {
				cfg.Ranked.Tier = rankedOpts.tier
			}
			return runRanked(cmd.Context(), cfg, logger, rankedOpts.output)
		},
	}
	rankedCmd.Flags().StringVar(&rankedOpts.config, "config", "", "Path to config file (default: config.yaml in current directory)")
	rankedCmd.Flags().StringVar(&rankedOpts.tier, "tier", "", "Tier to simulate (default: ranked.tier or the first tier)")
	rankedCmd.Flags().IntVar(&rankedOpts.trials, "trials", 1000, "Number of trials")
	rankedCmd.Flags().IntVar(&rankedOpts.workers, "workers", 0, "Concurrent trials (default: number of CPUs)")
	rankedCmd.Flags().IntVar(&rankedOpts.top, "top", 4, "K for the top-K probability")
	rankedCmd.Flags().Int64Var(&rankedOpts.seed, "seed", 0, "Random seed")
	rankedCmd.Flags().StringVarP(&rankedOpts.output, "output", "o", "", "Also write the projections to this Excel file")

	seasonCmd.AddCommand(simulateCmd, validateCmd)
	rootCmd.AddCommand(initCmd, seasonCmd, rankedCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

type simulateOptions struct {
	output  string
	seasons int
	seed    int64
	trials  int
}

type rankedOptions struct {
	config  string
	tier    string
	trials  int
	workers int
	top     int
	seed    int64
	output  string
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runInit(outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use -o to write elsewhere", outputPath)
	}

	if err := os.WriteFile(outputPath, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("✓ Created %s\n", outputPath)
	return nil
}

func runSimulate(ctx context.Context, cfg *config.Config, logger *logrus.Logger, opts simulateOptions) error {
	runner, err := season.NewRunner(cfg, logger)
	if err != nil {
		return err
	}

	fmt.Printf("Simulating %d season(s) across %d tier(s) with seed %d...\n",
		cfg.Season.Seasons, len(cfg.Tiers), cfg.Season.Seed)

	reports, runErr := runner.Run(ctx)
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "⚠ %s\n", runErr)
		if len(reports) == 0 {
			return runErr
		}
		fmt.Fprintf(os.Stderr, "\nSaving %d completed season(s)...\n", len(reports))
	} else {
		fmt.Printf("✓ All %d season(s) simulated\n", len(reports))
	}

	for _, rep := range reports {
		fmt.Printf("\nSeason %d:\n", rep.Year)
		for _, o := range rep.Outcomes {
			champion, _ := rep.Pool.Team(o.Champion)
			fmt.Printf("  %-16s champion: %s\n", o.Tier, champion.Name)
		}
		for _, m := range rep.Transition.Movements {
			switch {
			case m.From == "":
				fmt.Printf("  + %s %s to %s\n", m.Team, m.Reason, m.To)
			case m.To == "":
				fmt.Printf("  - %s %s (was in %s)\n", m.Team, m.Reason, m.From)
			default:
				fmt.Printf("  %s %s: %s → %s\n", m.Team, m.Reason, m.From, m.To)
			}
		}
	}

	f, err := excel.Generate(reports, cfg.Season.Calendar)
	if err != nil {
		return fmt.Errorf("generating Excel: %w", err)
	}

	if opts.trials > 0 && len(reports) > 0 {
		last := reports[len(reports)-1]
		fmt.Printf("\nProjecting next season with %d trials per tier...\n", opts.trials)
		for _, tier := range runner.Graph().Tiers() {
			report, err := projectNext(ctx, cfg, runner, last, tier, opts.trials, logger)
			if err != nil {
				return err
			}
			if err := excel.AddProjections(f, report, last.Transition.Pool); err != nil {
				return err
			}
			fmt.Printf("  %-16s favourite: %s\n", tier, report.Favourite())
		}
	}

	if err := f.SaveAs(opts.output); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}

	fmt.Printf("\n✓ Results saved to %s\n", opts.output)
	if runErr != nil {
		return fmt.Errorf("simulation stopped after %d of %d seasons", len(reports), cfg.Season.Seasons)
	}
	return nil
}

// projectNext runs ranked trials for a tier's roster after the last
// simulated season.
func projectNext(ctx context.Context, cfg *config.Config, runner *season.Runner, last season.Report, tier string, trials int, logger *logrus.Logger) (*ranked.Report, error) {
	def, err := ranked.FromTier(cfg, tier)
	if err != nil {
		return nil, err
	}
	comps, err := runner.Competitions(last.Season+1, last.Transition.Rosters)
	if err != nil {
		return nil, err
	}
	for _, c := range comps {
		if c.Tier == tier {
			def.ID = fmt.Sprintf("%d %s", last.Year+1, tier)
			def.Teams = c.Teams()
			def.Config = c.Config()
		}
	}
	def.Strengths = last.Transition.Pool.Snapshot()
	return ranked.Run(ctx, def, ranked.Options{
		Trials:  trials,
		Workers: cfg.Ranked.Workers,
		Seed:    cfg.Season.Seed,
		Top:     cfg.Ranked.Top,
		Logger:  logger,
	})
}

func runRanked(ctx context.Context, cfg *config.Config, logger *logrus.Logger, outputPath string) error {
	tier := cfg.Ranked.Tier
	if tier == "" {
		tier = cfg.Tiers[0].ID
	}
	def, err := ranked.FromTier(cfg, tier)
	if err != nil {
		return err
	}

	fmt.Printf("Running %d trials of %s...\n", cfg.Ranked.Trials, tier)
	report, err := ranked.Run(ctx, def, ranked.Options{
		Trials:  cfg.Ranked.Trials,
		Workers: cfg.Ranked.Workers,
		Seed:    cfg.Season.Seed,
		Top:     cfg.Ranked.Top,
		Logger:  logger,
	})
	runErr := err
	switch {
	case err != nil && report == nil:
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "⚠ Interrupted")
		}
		return err
	case err != nil:
		fmt.Fprintf(os.Stderr, "⚠ Interrupted after %d of %d trials\n", report.Trials, cfg.Ranked.Trials)
	default:
		fmt.Printf("✓ %d trials complete\n", report.Trials)
	}

	names := make(map[string]string)
	for _, t := range cfg.AllTeams() {
		names[t.ID] = t.Name
	}
	fmt.Printf("\n  %-20s %7s %7s %8s %7s %8s %9s\n", "Team", "AvgPos", "AvgPts", "Champion", fmt.Sprintf("Top %d", report.Top), "Promoted", "Relegated")
	for _, p := range report.Projections {
		fmt.Printf("  %-20s %7.2f %7.1f %7.1f%% %6.1f%% %7.1f%% %8.1f%%\n",
			names[p.Team], p.MeanPosition, p.MeanPoints,
			100*p.Champion, 100*p.TopK, 100*p.Promoted, 100*p.Relegated)
	}

	if outputPath == "" {
		return runErr
	}
	f := excelize.NewFile()
	if err := excel.AddProjections(f, report, nil); err != nil {
		return err
	}
	f.DeleteSheet("Sheet1")
	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}
	fmt.Printf("\n✓ Projections saved to %s\n", outputPath)
	return runErr
}

func runValidate(configPath, workbookPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	violations, err := validator.Validate(cfg, workbookPath)
	if err != nil {
		return fmt.Errorf("validating: %w", err)
	}

	errors := 0
	warnings := 0
	for _, v := range violations {
		switch v.Type {
		case "error":
			errors++
			fmt.Printf("✗ %s row %d: %s\n", v.Sheet, v.Row, v.Message)
		case "warning":
			warnings++
			fmt.Printf("⚠ %s row %d: %s\n", v.Sheet, v.Row, v.Message)
		}
	}

	fmt.Printf("\nValidation complete: %d errors, %d warnings\n", errors, warnings)
	if errors > 0 {
		return fmt.Errorf("%d inconsistencies found", errors)
	}
	fmt.Printf("✓ %s is consistent\n", workbookPath)
	return nil
}
