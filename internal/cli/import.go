package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/piwi3910/PlantLayout/internal/importer"
	"github.com/piwi3910/PlantLayout/internal/project"
)

func newImportCmd() *cobra.Command {
	var (
		config  string
		merge   bool
		library string
		dxfOpts = importer.DefaultDXFOptions()
	)

	cmd := &cobra.Command{
		Use:   "import <file.csv|file.xlsx|file.dxf|file.json>",
		Short: "Import a station catalogue into a run configuration",
		Long: `Replace the stations of a run configuration with a catalogue read from a
CSV or Excel sheet (columns: id, name, width, height, clearance, cycle time),
from a DXF floor plan, where every closed outline becomes a station, or from
a JSON station library.

With --merge the imported stations are added to the existing ones and
duplicate ids are skipped. With --library they are also merged into a
reusable station library (e.g. ~/.plantlayout/stations.json).

The configured process sequence is cleared, so the catalogue order is used
until a new one is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], importOptions{config: config, merge: merge, library: library, dxf: dxfOpts})
		},
	}

	cmd.Flags().StringVarP(&config, "config", "c", project.DefaultConfigPath(), "run configuration to update (created if missing)")
	cmd.Flags().BoolVar(&merge, "merge", false, "add to the configured stations instead of replacing them")
	cmd.Flags().StringVar(&library, "library", "", "also merge the stations into this JSON station library")
	cmd.Flags().Float64Var(&dxfOpts.CellSize, "cell-size", dxfOpts.CellSize, "DXF drawing units per grid cell")
	cmd.Flags().IntVar(&dxfOpts.Clearance, "clearance", dxfOpts.Clearance, "clearance applied to DXF stations")
	cmd.Flags().Float64Var(&dxfOpts.CycleTime, "cycle-time", dxfOpts.CycleTime, "cycle time in seconds applied to DXF stations")

	return cmd
}

type importOptions struct {
	config  string
	merge   bool
	library string
	dxf     importer.DXFOptions
}

func readCatalogue(file string, dxfOpts importer.DXFOptions) (importer.ImportResult, error) {
	switch ext := strings.ToLower(filepath.Ext(file)); ext {
	case ".csv", ".txt", ".tsv":
		return importer.ImportCSV(file), nil
	case ".xlsx", ".xlsm":
		return importer.ImportExcel(file), nil
	case ".dxf":
		return importer.ImportDXF(file, dxfOpts), nil
	case ".json":
		if _, err := os.Stat(file); err != nil {
			return importer.ImportResult{}, err
		}
		lib, err := project.LoadLibrary(file)
		if err != nil {
			return importer.ImportResult{}, err
		}
		return importer.ImportResult{Stations: lib.Stations}, nil
	default:
		return importer.ImportResult{}, fmt.Errorf("unsupported file type %q", ext)
	}
}

func runImport(cmd *cobra.Command, file string, opts importOptions) error {
	logger := loggerFromContext(cmd.Context())
	out := cmd.OutOrStdout()

	result, err := readCatalogue(file, opts.dxf)
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		logger.Warn(w)
	}
	for _, e := range result.Errors {
		logger.Error(e)
	}
	if len(result.Stations) == 0 {
		return fmt.Errorf("no stations imported from %s (%d errors)", file, len(result.Errors))
	}

	cfg, err := project.LoadRunConfig(opts.config)
	if err != nil {
		return err
	}
	stations := result.Stations
	if opts.merge {
		var skipped []int
		stations, skipped = project.MergeStations(cfg.Stations, result.Stations)
		if len(skipped) > 0 {
			logger.Warn("skipped stations with existing ids", "ids", fmt.Sprint(skipped))
		}
	}
	cfg.Stations = stations
	cfg.Sequence = nil
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := project.SaveRunConfig(opts.config, cfg); err != nil {
		return fmt.Errorf("write config %s: %w", opts.config, err)
	}

	if len(result.Errors) > 0 {
		printWarning(out, "Imported %d stations, skipped %d rows", len(result.Stations), len(result.Errors))
	} else {
		printSuccess(out, "Imported %d stations", len(result.Stations))
	}
	printFile(out, opts.config)

	if opts.library != "" {
		lib, err := project.LoadLibrary(opts.library)
		if err != nil {
			return fmt.Errorf("load station library %s: %w", opts.library, err)
		}
		lib.Stations, _ = project.MergeStations(lib.Stations, result.Stations)
		if err := project.SaveLibrary(opts.library, lib); err != nil {
			return fmt.Errorf("write station library %s: %w", opts.library, err)
		}
		printFile(out, opts.library)
	}

	printNextStep(out, "Optimize", appName+" optimize -c "+opts.config)
	return nil
}
