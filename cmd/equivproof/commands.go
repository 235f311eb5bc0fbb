package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"equivproof/domain/tensor"
	"equivproof/internal"
	"equivproof/internal/adversarial"
	"equivproof/internal/config"
	"equivproof/internal/container"
	"equivproof/internal/harness"
	"equivproof/internal/ledger"
	"equivproof/internal/migration"
	"equivproof/ui"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	var seed uint64
	var shape string
	var strategy string
	var strict bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Draw one adversarial input and print it",
		Long: `Draw one input with the given strategy and print its shape, hash and values.

Example: equivproof generate --shape 4,4 --strategy ill_conditioned --seed 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dims, err := parseShape(shape)
			if err != nil {
				return err
			}
			st, err := adversarial.ParseStrategy(strategy)
			if err != nil {
				return err
			}
			session := adversarial.NewSession(adversarial.SessionOptions{Seed: seed, StrictShapes: strict})
			a, err := session.Generate(dims, st)
			if err != nil {
				return err
			}
			printArtifact(cmd.OutOrStdout(), a)
			return nil
		},
	}

	cmd.Flags().Uint64Var(&seed, "seed", 42, "Random seed for deterministic generation")
	cmd.Flags().StringVar(&shape, "shape", "4,4", "Comma-separated dimensions")
	cmd.Flags().StringVar(&strategy, "strategy", "normal", "normal, boundary, sparse or ill_conditioned")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail instead of falling back when a strategy cannot serve the shape")
	return cmd
}

func newCampaignCmd() *cobra.Command {
	var workers, trials int
	var shapes []string
	var strategies []string
	var exportPath string

	cmd := &cobra.Command{
		Use:   "campaign",
		Short: "Run the comparator self-consistency campaign and record it in the ledger",
		Long: `Run parallel adversarial workers that check the comparator's own gauge
invariants (global phase, conjugation, Hermitian symmetrization) and record
every verdict in the verification ledger. The ledger is exported on exit and
archived to PostgreSQL when DATABASE_URL is set.

Example: equivproof campaign --workers 4 --trials 50 --shape 8,8 --shape 16`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				cfg.Adversarial.Workers = workers
			}
			if exportPath != "" {
				cfg.Ledger.ExportPath = exportPath
			}

			dims, err := parseShapes(shapes)
			if err != nil {
				return err
			}
			sts, err := parseStrategies(strategies)
			if err != nil {
				return err
			}
			return runCampaign(cmd.Context(), cmd.OutOrStdout(), cfg, logger, dims, sts, trials)
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 4, "Parallel workers (overrides EQUIV_WORKERS)")
	cmd.Flags().IntVar(&trials, "trials", 50, "Inputs drawn per shape, strategy and check")
	cmd.Flags().StringArrayVar(&shapes, "shape", []string{"8,8", "16"}, "Input shape; repeatable")
	cmd.Flags().StringSliceVar(&strategies, "strategy", []string{"all"}, "Strategies to use, or all")
	cmd.Flags().StringVar(&exportPath, "export", "", "Ledger export path (overrides LEDGER_EXPORT_PATH)")
	return cmd
}

func runCampaign(ctx context.Context, out io.Writer, cfg *config.Config, logger *internal.Logger, shapes [][]int, strategies []adversarial.Strategy, trials int) (err error) {
	c, err := container.New(cfg, logger)
	if err != nil {
		return err
	}
	if err := c.LoadLedger(cfg.Ledger.ExportPath); err != nil {
		return err
	}
	if err := c.OpenDatabase(ctx); err != nil {
		return err
	}
	defer func() {
		if shutdownErr := c.Shutdown(context.Background()); err == nil {
			err = shutdownErr
		}
	}()

	campaign := adversarial.Campaign{
		Seed:         cfg.Adversarial.Seed,
		Workers:      cfg.Adversarial.Workers,
		StrictShapes: !cfg.Adversarial.AllowFallback,
		Logger:       logger,
	}
	report, err := campaign.Run(ctx, func(ctx context.Context, worker int, session *adversarial.Session) error {
		return c.Harness.SelfCheck(ctx, session, harness.SelfCheckConfig{
			Shapes:       shapes,
			Strategies:   strategies,
			Trials:       trials,
			Theta:        0.5 + float64(worker),
			PropertyATol: cfg.Tolerance.PropertyATol,
		})
	})

	fmt.Fprintf(out, "campaign: %s\n", report.Total)
	for i, w := range report.Workers {
		fmt.Fprintf(out, "  worker %d (seed %d): %s\n", i, cfg.Adversarial.Seed+uint64(i), w)
	}
	fmt.Fprintf(out, "ledger: %s\n", cfg.Ledger.ExportPath)
	return err
}

func newLedgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and convert verification ledger exports",
	}

	show := &cobra.Command{
		Use:   "show [export.json]",
		Short: "Print the ledger as a Markdown report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := ledger.Load(args[0], ledger.WithLogger(internal.Discard()))
			if err != nil {
				return err
			}
			return l.WriteMarkdown(cmd.OutOrStdout())
		},
	}

	var format, outPath string
	export := &cobra.Command{
		Use:   "export [export.json]",
		Short: "Convert a ledger export to md, html or xlsx",
		Long: `Convert a ledger export.

Example: equivproof ledger export verification_ledger.json --format xlsx --out ledger.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := ledger.Load(args[0], ledger.WithLogger(internal.Discard()))
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + "." + format
			}
			return exportLedger(l, format, outPath)
		},
	}
	export.Flags().StringVar(&format, "format", "md", "md, html or xlsx")
	export.Flags().StringVar(&outPath, "out", "", "Output path (default: input name with the format's extension)")

	cmd.AddCommand(show, export)
	return cmd
}

func exportLedger(l *ledger.Ledger, format, path string) error {
	format = strings.ToLower(format)
	switch format {
	case "xlsx":
		return l.ExportXLSX(path)
	case "md", "markdown", "html":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if format == "html" {
			return l.WriteHTML(f)
		}
		return l.WriteMarkdown(f)
	case "json":
		return l.Export(path)
	}
	return fmt.Errorf("unknown format %q (want md, html, xlsx or json)", format)
}

func newGroundTruthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groundtruth",
		Short: "Work with exported reference arrays",
	}

	var dir string
	inspect := &cobra.Command{
		Use:   "inspect",
		Short: "List every ground-truth module and array",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if dir != "" {
				cfg.GroundTruth.Dir = dir
			}
			c, err := container.New(cfg, logger)
			if err != nil {
				return err
			}
			gt, err := c.GroundTruth.Load(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MODULE\tARRAY\tSHAPE\tHASH")
			modules := make([]string, 0, len(gt))
			for m := range gt {
				modules = append(modules, m)
			}
			sort.Strings(modules)
			for _, m := range modules {
				names := make([]string, 0, len(gt[m]))
				for n := range gt[m] {
					names = append(names, n)
				}
				sort.Strings(names)
				for _, n := range names {
					a := gt[m][n]
					fmt.Fprintf(w, "%s\t%s\t%v\t%s\n", m, n, a.Shape, a.Hash().Short())
				}
			}
			return w.Flush()
		},
	}
	inspect.Flags().StringVar(&dir, "dir", "", "Ground-truth directory (overrides GROUND_TRUTH_DIR)")

	cmd.AddCommand(inspect)
	return cmd
}

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve [export.json]",
		Short: "Serve a read-only audit view of a ledger export",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			path := cfg.Ledger.ExportPath
			if len(args) == 1 {
				path = args[0]
			}
			if port != "" {
				cfg.Audit.Port = port
			}

			l, err := ledger.Load(path, ledger.WithLogger(logger))
			if err != nil {
				return err
			}
			app, err := ui.NewApp(ui.Config{Port: cfg.Audit.Port}, l, l, logger)
			if err != nil {
				return err
			}
			return app.Start()
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "Listen port (overrides AUDIT_PORT)")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the ledger archive schema in DATABASE_URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Ledger.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			db, err := sqlx.ConnectContext(cmd.Context(), "postgres", cfg.Ledger.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()
			return migration.NewRunner(logger).Run(cmd.Context(), db)
		},
	}
}

func parseShape(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	dims := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		d, err := strconv.Atoi(p)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("invalid dimension %q in shape %q", p, s)
		}
		dims = append(dims, d)
	}
	if len(dims) == 0 {
		return nil, fmt.Errorf("empty shape %q", s)
	}
	return dims, nil
}

func parseShapes(values []string) ([][]int, error) {
	out := make([][]int, 0, len(values))
	for _, v := range values {
		dims, err := parseShape(v)
		if err != nil {
			return nil, err
		}
		out = append(out, dims)
	}
	return out, nil
}

func parseStrategies(names []string) ([]adversarial.Strategy, error) {
	var out []adversarial.Strategy
	for _, n := range names {
		if strings.EqualFold(strings.TrimSpace(n), "all") {
			return adversarial.AllStrategies(), nil
		}
		st, err := adversarial.ParseStrategy(n)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func printArtifact(w io.Writer, a *tensor.Artifact) {
	fmt.Fprintf(w, "shape: %v\nhash:  %s\nnonzero: %d/%d\n", a.Shape, a.Hash(), a.CountNonZero(), a.Size())
	if a.Dims() == 2 {
		for i := 0; i < a.Shape[0]; i++ {
			row := make([]string, a.Shape[1])
			for j := range row {
				row[j] = fmt.Sprintf("%.4g", a.At(i, j))
			}
			fmt.Fprintln(w, strings.Join(row, "  "))
		}
		return
	}
	for _, v := range a.Data {
		fmt.Fprintf(w, "%.4g\n", v)
	}
}
