package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/PlantLayout/internal/engine"
	"github.com/piwi3910/PlantLayout/internal/export"
)

func newCompareCmd() *cobra.Command {
	var (
		config string
		xlsx   string
		seed   int64
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare search parameter scenarios on the same problem",
		Long: `Run the layout search once per scenario (the configured settings plus
variants with lower mutation, no elitism, stronger tournaments and a
smaller population searched for longer) and print the results side by side.
All scenarios share one seed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd.Context(), cmd, config, xlsx, seed)
		},
	}

	cmd.Flags().StringVarP(&config, "config", "c", "", "run configuration (TOML)")
	cmd.Flags().StringVar(&xlsx, "xlsx", "", "write a Comparison sheet")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed shared by all scenarios")

	return cmd
}

func runCompare(ctx context.Context, cmd *cobra.Command, config, xlsx string, seed int64) error {
	logger := loggerFromContext(ctx)
	out := cmd.OutOrStdout()

	cfg, err := loadSearchConfig(cmd, config, seed, false)
	if err != nil {
		return err
	}
	problem, err := cfg.Problem()
	if err != nil {
		return err
	}

	scenarios := engine.BuildDefaultScenarios(cfg.Genetic, cfg.Fitness)
	prog := newProgress(logger)
	results, err := engine.CompareScenarios(ctx, problem, scenarios, logger)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Compared %d scenarios", len(results)))

	best := -1
	rows := make([][]string, 0, len(results))
	for i, r := range results {
		if r.Result.Found() && (best < 0 || r.Fitness > results[best].Fitness) {
			best = i
		}
		if !r.Result.Found() {
			rows = append(rows, []string{r.Scenario.Name, "no valid layout", "-", "-", fmt.Sprintf("%.0f%%", r.ValidRatio*100), "-"})
			continue
		}
		rows = append(rows, []string{
			r.Scenario.Name,
			fmt.Sprintf("%.4f", r.Fitness),
			fmt.Sprintf("%.2f", r.TotalDistance),
			fmt.Sprintf("%.2f", r.Throughput),
			fmt.Sprintf("%.0f%%", r.ValidRatio*100),
			fmt.Sprintf("%d", r.BestGeneration),
		})
	}
	printTable(out, []string{"Scenario", "Fitness", "Distance", "Throughput", "Valid", "Best gen"}, rows, best)
	if best >= 0 {
		printSuccess(out, "Best scenario: %s", results[best].Scenario.Name)
	} else {
		printWarning(out, "No scenario found a valid layout")
	}

	writeArtifacts(out, logger, []artifact{
		{"workbook", xlsx, func(p string) error { return export.ExportWorkbook(p, export.Report{Comparison: results}) }},
	})
	return nil
}
