package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/piwi3910/PlantLayout/internal/engine"
	"github.com/piwi3910/PlantLayout/internal/export"
	"github.com/piwi3910/PlantLayout/internal/model"
	"github.com/piwi3910/PlantLayout/internal/project"
)

type optimizeOptions struct {
	config  string
	output  string
	pdf     string
	xlsx    string
	chart   string
	seed    int64
	shuffle bool
}

func newOptimizeCmd() *cobra.Command {
	var opts optimizeOptions

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Search for a station layout",
		Long: `Run the genetic layout search described by the run configuration and save
the best layout as JSON for the route command.

Interrupting the search (Ctrl-C) finishes the current generation and still
writes the best layout found so far, with "_interrupted" added to every
output file name.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOptimize(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.config, "config", "c", project.DefaultConfigPath(), "run configuration (TOML)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "layout.json", "layout output file")
	cmd.Flags().StringVar(&opts.pdf, "pdf", "", "write a PDF layout sheet")
	cmd.Flags().StringVar(&opts.xlsx, "xlsx", "", "write an XLSX report with stations and convergence")
	cmd.Flags().StringVar(&opts.chart, "chart", "", "write a convergence chart (png, svg or pdf)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed (0 derives one from the clock)")
	cmd.Flags().BoolVar(&opts.shuffle, "shuffle-sequence", false, "shuffle the process sequence before searching")

	return cmd
}

// loadSearchConfig loads the run config and fixes the seed so that the
// sequence shuffle and the search draw from the same one.
func loadSearchConfig(cmd *cobra.Command, path string, seed int64, shuffle bool) (project.RunConfig, error) {
	cfg, err := project.LoadRunConfig(path)
	if err != nil {
		return project.RunConfig{}, err
	}
	if cmd.Flags().Changed("seed") {
		cfg.Genetic.Seed = seed
	}
	if shuffle {
		cfg.ShuffleSequence = true
	}
	if cfg.Genetic.Seed == 0 {
		cfg.Genetic.Seed = time.Now().UnixNano()
	}
	return cfg, nil
}

func runOptimize(ctx context.Context, cmd *cobra.Command, opts optimizeOptions) error {
	logger := loggerFromContext(ctx)
	out := cmd.OutOrStdout()

	cfg, err := loadSearchConfig(cmd, opts.config, opts.seed, opts.shuffle)
	if err != nil {
		return err
	}
	problem, err := cfg.Problem()
	if err != nil {
		return err
	}
	logger.Debug("process sequence", "order", fmt.Sprint(problem.Sequence))

	optimizer, err := engine.New(problem, cfg.Genetic, cfg.Fitness, logger)
	if err != nil {
		return err
	}

	prog := newProgress(logger)
	res, err := optimizer.Run(ctx)
	if err != nil {
		return fmt.Errorf("layout search: %w", err)
	}
	prog.done(fmt.Sprintf("Searched %d generations", res.Generations))

	if !res.Found() {
		return fmt.Errorf("%w after %d generations (seed %d)", engine.ErrNoValidLayout, res.Generations, res.Seed)
	}

	layout, err := problem.Layout(res.Best, cfg.Fitness, model.NewRunID())
	if err != nil {
		return err
	}
	logger.Debug("best layout\n" + layout.Render())

	suffix := ""
	if res.Interrupted {
		suffix = interruptedSuffix
	}
	layoutPath := withSuffix(opts.output, suffix)
	if err := project.SaveLayout(layoutPath, layout); err != nil {
		return fmt.Errorf("write layout %s: %w", layoutPath, err)
	}

	if res.Interrupted {
		printWarning(out, "Search interrupted after %d generations", res.Generations)
	} else {
		printSuccess(out, "Layout search complete")
	}
	printFile(out, layoutPath)
	writeArtifacts(out, logger, []artifact{
		{"PDF", withSuffix(opts.pdf, suffix), func(p string) error { return export.ExportPDF(p, layout, nil) }},
		{"workbook", withSuffix(opts.xlsx, suffix), func(p string) error {
			return export.ExportWorkbook(p, export.Report{Layout: &layout, History: res.History})
		}},
		{"chart", withSuffix(opts.chart, suffix), func(p string) error { return export.ExportConvergenceChart(p, res.History) }},
	})

	printKeyValue(out, "Fitness", fmt.Sprintf("%.4f", layout.Fitness))
	printKeyValue(out, "Distance", fmt.Sprintf("%.2f cells", layout.TotalDistance))
	printKeyValue(out, "Throughput", fmt.Sprintf("%.2f units/h", layout.Throughput))
	printKeyValue(out, "Best generation", fmt.Sprintf("%d of %d", res.BestGeneration, res.Generations))
	printKeyValue(out, "Seed", fmt.Sprintf("%d", res.Seed))
	printNextStep(out, "Route", appName+" route -l "+layoutPath)
	return nil
}
