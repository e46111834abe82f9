package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/piwi3910/PlantLayout/internal/export"
	"github.com/piwi3910/PlantLayout/internal/project"
	"github.com/piwi3910/PlantLayout/internal/routing"
)

type routeOptions struct {
	layout      string
	config      string
	routes      string
	pdf         string
	dxf         string
	cellSize    float64
	labels      string
	xlsx        string
	radius      int
	noLookahead bool
}

func newRouteCmd() *cobra.Command {
	var opts routeOptions

	cmd := &cobra.Command{
		Use:   "route",
		Short: "Route paths between consecutive stations of a saved layout",
		Long: `Resolve one access point per station and route a 4-connected path between
every consecutive pair of the process sequence, avoiding station bodies.

Routing options come from the [routing] section of --config when given,
otherwise the defaults apply. --radius and --no-lookahead override both.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoute(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.layout, "layout", "l", "layout.json", "layout file written by optimize")
	cmd.Flags().StringVarP(&opts.config, "config", "c", "", "run configuration supplying routing options")
	cmd.Flags().StringVarP(&opts.routes, "output", "o", "routes.json", "route report output file")
	cmd.Flags().StringVar(&opts.pdf, "pdf", "", "write a PDF layout sheet with routes")
	cmd.Flags().StringVar(&opts.dxf, "dxf", "", "write a DXF drawing")
	cmd.Flags().Float64Var(&opts.cellSize, "cell-size", 1, "DXF drawing units per grid cell")
	cmd.Flags().StringVar(&opts.labels, "labels", "", "write QR-coded station labels (PDF)")
	cmd.Flags().StringVar(&opts.xlsx, "xlsx", "", "write an XLSX report with stations and routes")
	cmd.Flags().IntVar(&opts.radius, "radius", routing.DefaultSearchRadius, "access point search radius in cells")
	cmd.Flags().BoolVar(&opts.noLookahead, "no-lookahead", false, "resolve every access point on its own")

	return cmd
}

func runRoute(ctx context.Context, cmd *cobra.Command, opts routeOptions) error {
	logger := loggerFromContext(ctx)
	out := cmd.OutOrStdout()

	layout, err := project.LoadLayout(opts.layout)
	if err != nil {
		return fmt.Errorf("load layout %s: %w", opts.layout, err)
	}

	routeOpts := routing.DefaultOptions()
	if opts.config != "" {
		cfg, err := project.LoadRunConfig(opts.config)
		if err != nil {
			return err
		}
		routeOpts = cfg.Routing
	}
	if cmd.Flags().Changed("radius") {
		routeOpts.SearchRadius = opts.radius
	}
	if opts.noLookahead {
		routeOpts.Lookahead = false
	}

	prog := newProgress(logger)
	net, err := routing.NewPlanner(routeOpts, logger).Plan(ctx, layout)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Routed %d segments", len(net.Segments)))

	if err := project.SaveRoutes(opts.routes, project.NewRouteReport(layout.RunID, net)); err != nil {
		return fmt.Errorf("write routes %s: %w", opts.routes, err)
	}

	if net.Failures() > 0 || len(net.Unresolved) > 0 {
		printWarning(out, "Routing finished with %d failed segments and %d unresolved stations",
			net.Failures(), len(net.Unresolved))
	} else {
		printSuccess(out, "Routing complete")
	}
	printFile(out, opts.routes)
	writeArtifacts(out, logger, []artifact{
		{"PDF", opts.pdf, func(p string) error { return export.ExportPDF(p, layout, net) }},
		{"DXF", opts.dxf, func(p string) error { return export.ExportDXF(p, layout, net, opts.cellSize) }},
		{"labels", opts.labels, func(p string) error { return export.ExportLabels(p, layout, net) }},
		{"workbook", opts.xlsx, func(p string) error {
			return export.ExportWorkbook(p, export.Report{Layout: &layout, Network: net})
		}},
	})

	rows := make([][]string, 0, len(net.Segments))
	for i, seg := range net.Segments {
		length := fmt.Sprintf("%d", seg.Path.Steps())
		if !seg.Found {
			length = "not found"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%d → %d", seg.From, seg.To),
			fmt.Sprintf("(%d,%d)", seg.Start.X, seg.Start.Y),
			fmt.Sprintf("(%d,%d)", seg.Goal.X, seg.Goal.Y),
			length,
		})
	}
	printTable(out, []string{"#", "Stations", "Start", "Goal", "Length"}, rows, -1)
	printKeyValue(out, "Total length", fmt.Sprintf("%d cells", net.TotalLength()))
	if len(net.Unresolved) > 0 {
		printKeyValue(out, "Unresolved", fmt.Sprint(net.Unresolved))
	}
	return nil
}
