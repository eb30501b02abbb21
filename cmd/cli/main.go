package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"trialstats/adapters/api"
	"trialstats/adapters/postgres"
	"trialstats/internal/aggregation"
	"trialstats/internal/config"
	"trialstats/internal/container"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "trialstats",
		Short: "Aggregate indoor-localization trials into per-configuration accuracy tables",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
		},
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newDescribeCmd(),
		newBackupCmd(),
		newHistoryCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the configuration and builds the container. withDB connects
// to DATABASE_URL when it is set.
func setup(ctx context.Context, withDB bool, override func(*config.Config)) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if override != nil {
		override(cfg)
	}

	c, err := container.New(cfg)
	if err != nil {
		return nil, err
	}
	if withDB && cfg.Database.Enabled() {
		db, err := postgres.Connect(cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		if err := c.InitWithDatabase(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}
	return c, nil
}

func newAnalyzeCmd() *cobra.Command {
	var analysesFile, input, outputDir string
	var formats, only []string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run analysis definitions and export their tables",
		Long: `Run every analysis of ANALYSES_FILE (or the default analysis over INPUT_FILE)
and export the reports to OUTPUT_DIR.

Example: trialstats analyze --analyses analyses.yaml --only knn_rssi --formats xlsx,md`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(cmd.Context(), true, func(cfg *config.Config) {
				if analysesFile != "" {
					cfg.Input.AnalysesFile = analysesFile
				}
				if input != "" {
					cfg.Input.File = input
				}
				if outputDir != "" {
					cfg.Output.Dir = outputDir
				}
				if len(formats) > 0 {
					cfg.Output.Formats = formats
				}
			})
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())
			return runAnalyze(cmd.Context(), c, only)
		},
	}

	cmd.Flags().StringVar(&analysesFile, "analyses", "", "Analyses YAML file (default: ANALYSES_FILE)")
	cmd.Flags().StringVar(&input, "input", "", "Default trial file (default: INPUT_FILE)")
	cmd.Flags().StringVar(&outputDir, "output", "", "Output directory (default: OUTPUT_DIR)")
	cmd.Flags().StringSliceVar(&formats, "formats", nil, "Export formats: xlsx,csv,md,html,json")
	cmd.Flags().StringSliceVar(&only, "only", nil, "Run only the named analyses")

	return cmd
}

func runAnalyze(ctx context.Context, c *container.Container, only []string) error {
	analyses, err := c.Analyses()
	if err != nil {
		return err
	}
	if len(only) > 0 {
		analyses, err = selectAnalyses(analyses, only)
		if err != nil {
			return err
		}
	}

	reports, err := c.Service.RunAll(ctx, analyses)
	if err != nil {
		return err
	}

	for _, r := range reports {
		if !r.Loaded {
			fmt.Printf("⚠️  %s: input not loaded (%s)\n", r.Analysis, r.LoadError)
			continue
		}
		paths, err := c.Exporter.Export(r)
		if err != nil {
			return err
		}
		fmt.Printf("✅ %s: %d trials, %d summary rows, %d files\n", r.Analysis, r.TrialCount, r.Summary.Len(), len(paths))
		for _, p := range paths {
			fmt.Printf("   %s\n", p)
		}
	}
	return nil
}

func selectAnalyses(analyses []config.Analysis, names []string) ([]config.Analysis, error) {
	byName := make(map[string]config.Analysis, len(analyses))
	for _, a := range analyses {
		byName[a.Name] = a
	}
	out := make([]config.Analysis, 0, len(names))
	for _, name := range names {
		a, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("analysis %q is not defined", name)
		}
		out = append(out, a)
	}
	return out, nil
}

func newDescribeCmd() *cobra.Command {
	var taxonomy string

	cmd := &cobra.Command{
		Use:   "describe [input]",
		Short: "Print the factor schema and measurements per room of an input",
		Long: `Load a trial file (or the database source) and print the factor columns
the pipeline would group by, with their kind and number of levels.

Example: trialstats describe data/localization_trials.csv --taxonomy ternary`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(cmd.Context(), true, nil)
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			return runDescribe(cmd.Context(), c, input, taxonomy)
		},
	}

	cmd.Flags().StringVar(&taxonomy, "taxonomy", "binary", "Outcome taxonomy: binary|ternary")
	return cmd
}

func runDescribe(ctx context.Context, c *container.Container, input, taxonomy string) error {
	a := config.DefaultAnalysis(input)
	a.Taxonomy = taxonomy
	cfg, err := a.AggregationConfig()
	if err != nil {
		return err
	}

	loader, err := c.Resolver.Resolve(input, "")
	if err != nil {
		return err
	}
	table, err := loader.Load(ctx)
	if err != nil {
		return err
	}

	schema, err := aggregation.DescribeFactors(table, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("📊 %s: %d trials, %d columns\n", loader.Source(), table.Len(), table.Width())
	fmt.Printf("Room column: %s, outcome column: %s\n\n", schema.Room, schema.Outcome)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FACTOR\tKIND\tLEVELS")
	for _, f := range schema.Factors {
		fmt.Fprintf(w, "%s\t%s\t%d\n", f.Name, f.Kind, f.Levels)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	counts, err := aggregation.MeasurementsPerRoom(table, cfg)
	if err != nil {
		fmt.Printf("\nMeasurements per room unavailable: %v\n", err)
		return nil
	}
	fmt.Printf("\nMeasurements per room:\n")
	for i := 0; i < counts.Len(); i++ {
		row := counts.Row(i)
		fmt.Printf("  %s: %s\n", row[0], row[1])
	}
	return nil
}

func newBackupCmd() *cobra.Command {
	var url, dir, prefix string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Fetch the measurement backup and save it as CSV",
		Long: `Download all measurements from BACKUP_URL and write them to
BACKUP_DIR/<prefix>_<timestamp>.csv.

Example: trialstats backup --url http://localhost:8000/measurements/backup`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			bc := cfg.Backup.Fetcher()
			if url != "" {
				bc.URL = url
			}
			if dir != "" {
				bc.Dir = dir
			}
			if prefix != "" {
				bc.FilePrefix = prefix
			}
			if err := bc.Validate(); err != nil {
				return err
			}

			path, err := api.NewBackupFetcher(bc).Save(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("✅ Backup written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Backup endpoint (default: BACKUP_URL)")
	cmd.Flags().StringVar(&dir, "dir", "", "Destination directory (default: BACKUP_DIR)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "File name prefix (default: BACKUP_FILE_PREFIX)")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [analysis]",
		Short: "List recorded runs of an analysis",
		Long: `List the most recent runs of one analysis stored in PostgreSQL.
Requires DATABASE_URL.

Example: trialstats history knn_rssi --limit 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(cmd.Context(), true, nil)
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())
			if c.RunRepo == nil {
				return fmt.Errorf("run history needs DATABASE_URL")
			}

			runs, err := c.RunRepo.ListByAnalysis(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Printf("No runs recorded for %s\n", args[0])
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RUN\tWHEN\tDEFINITION\tTRIALS\tGROUPS\tSOURCE")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
					r.RunID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.DefinitionHash.Short(),
					r.TrialCount, r.GroupCount, r.Source)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list")
	return cmd
}
