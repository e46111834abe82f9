package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/PlantLayout/internal/model"
	"github.com/piwi3910/PlantLayout/internal/project"
)

func runCLI(ctx context.Context, args ...string) (string, error) {
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

// writeSmallConfig saves a four-station line with a short search.
func writeSmallConfig(t *testing.T, dir string) string {
	t.Helper()
	cfg := project.DefaultRunConfig()
	cfg.Factory = project.FactoryConfig{Width: 12, Height: 12}
	cfg.Stations = []model.StationSpec{
		model.NewStation(0, "Receiving", 2, 2, 1, 20),
		model.NewStation(1, "Cutting", 3, 2, 1, 35),
		model.NewStation(2, "Assembly", 2, 3, 0, 40),
		model.NewStation(3, "Shipping", 2, 2, 1, 15),
	}
	cfg.Genetic.PopulationSize = 12
	cfg.Genetic.Generations = 4
	cfg.Genetic.EliteCount = 2
	cfg.Genetic.TournamentSize = 3
	cfg.Genetic.Seed = 7

	path := filepath.Join(dir, "plantlayout.toml")
	require.NoError(t, project.SaveRunConfig(path, cfg))
	return path
}

func TestInitWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "plantlayout.toml")

	out, err := runCLI(context.Background(), "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	cfg, err := project.LoadRunConfig(path)
	require.NoError(t, err)
	assert.Equal(t, project.DefaultRunConfig(), cfg)

	_, err = runCLI(context.Background(), "init", path)
	assert.Error(t, err, "existing file must not be overwritten")

	_, err = runCLI(context.Background(), "init", "--force", path)
	assert.NoError(t, err)
}

func TestOptimizeThenRoute(t *testing.T) {
	dir := t.TempDir()
	cfg := writeSmallConfig(t, dir)
	files := func(name string) string { return filepath.Join(dir, name) }

	out, err := runCLI(context.Background(), "optimize",
		"-c", cfg,
		"-o", files("layout.json"),
		"--pdf", files("layout.pdf"),
		"--xlsx", files("search.xlsx"),
		"--chart", files("convergence.png"),
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Layout search complete")

	layout, err := project.LoadLayout(files("layout.json"))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, layout.ProcessSequence)
	assert.NotEmpty(t, layout.RunID)
	for _, name := range []string{"layout.pdf", "search.xlsx", "convergence.png"} {
		assert.FileExists(t, files(name))
	}

	out, err = runCLI(context.Background(), "route",
		"-l", files("layout.json"),
		"-o", files("routes.json"),
		"--pdf", files("routes.pdf"),
		"--dxf", files("layout.dxf"),
		"--labels", files("labels.pdf"),
		"--xlsx", files("routes.xlsx"),
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Total length")

	report, err := project.LoadRoutes(files("routes.json"))
	require.NoError(t, err)
	assert.Equal(t, layout.RunID, report.RunID)
	assert.Len(t, report.Segments, 3)
	assert.Len(t, report.AccessPoints, 4)
	for _, name := range []string{"routes.pdf", "layout.dxf", "labels.pdf", "routes.xlsx"} {
		assert.FileExists(t, files(name))
	}
}

func TestOptimizeSeedIsReproducible(t *testing.T) {
	dir := t.TempDir()
	cfg := writeSmallConfig(t, dir)

	for _, name := range []string{"a.json", "b.json"} {
		_, err := runCLI(context.Background(), "optimize", "-c", cfg, "--seed", "11", "-o", filepath.Join(dir, name))
		require.NoError(t, err)
	}

	a, err := project.LoadLayout(filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	b, err := project.LoadLayout(filepath.Join(dir, "b.json"))
	require.NoError(t, err)
	assert.Equal(t, a.Positions, b.Positions)
	assert.Equal(t, a.Fitness, b.Fitness)
}

func TestOptimizeInterruptedWritesSuffixedArtifacts(t *testing.T) {
	dir := t.TempDir()
	cfg := writeSmallConfig(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := runCLI(ctx, "optimize", "-c", cfg,
		"-o", filepath.Join(dir, "layout.json"),
		"--xlsx", filepath.Join(dir, "search.xlsx"))
	require.NoError(t, err)
	assert.Contains(t, out, "interrupted")

	assert.FileExists(t, filepath.Join(dir, "layout_interrupted.json"))
	assert.FileExists(t, filepath.Join(dir, "search_interrupted.xlsx"))
	assert.NoFileExists(t, filepath.Join(dir, "layout.json"))
}

func TestOptimizeShuffleSequence(t *testing.T) {
	dir := t.TempDir()
	cfg := writeSmallConfig(t, dir)
	path := filepath.Join(dir, "layout.json")

	_, err := runCLI(context.Background(), "optimize", "-c", cfg, "--shuffle-sequence", "-o", path)
	require.NoError(t, err)

	layout, err := project.LoadLayout(path)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{0, 1, 2, 3}, layout.ProcessSequence)
}

func TestRouteMalformedLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"factory_width": 10}`), 0644))

	_, err := runCLI(context.Background(), "route", "-l", path, "-o", filepath.Join(t.TempDir(), "r.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrMalformedLayout), "got %v", err)
}

func TestCompareWritesComparisonSheet(t *testing.T) {
	dir := t.TempDir()
	cfg := writeSmallConfig(t, dir)
	xlsx := filepath.Join(dir, "compare.xlsx")

	out, err := runCLI(context.Background(), "compare", "-c", cfg, "--xlsx", xlsx)
	require.NoError(t, err)
	assert.Contains(t, out, "Current Settings")
	assert.Contains(t, out, "Best scenario")
	assert.FileExists(t, xlsx)
}

func TestImportCSVIntoConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := writeSmallConfig(t, dir)
	csv := filepath.Join(dir, "stations.csv")
	require.NoError(t, os.WriteFile(csv, []byte("ID,Name,Width,Height,Clearance,Cycle Time\n"+
		"10,Press,3,2,1,30\n11,Drill,2,2,0,25\n12,Pack,2,1,1,12\n"), 0644))

	out, err := runCLI(context.Background(), "import", csv, "-c", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 3 stations")

	loaded, err := project.LoadRunConfig(cfg)
	require.NoError(t, err)
	require.Len(t, loaded.Stations, 3)
	assert.Equal(t, "Drill", loaded.Stations[1].Name)
	assert.Empty(t, loaded.Sequence)
	assert.Equal(t, 12, loaded.Genetic.PopulationSize, "search settings are kept")
}

func TestImportRejectsUnknownExtension(t *testing.T) {
	_, err := runCLI(context.Background(), "import", "stations.pdf", "-c", filepath.Join(t.TempDir(), "c.toml"))
	assert.Error(t, err)
}

func TestImportMissingLibraryFails(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(context.Background(), "import", filepath.Join(dir, "missing.json"), "-c", filepath.Join(dir, "c.toml"))
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "missing.json"))
}

func TestImportMergeIntoConfigAndLibrary(t *testing.T) {
	dir := t.TempDir()
	cfg := writeSmallConfig(t, dir)

	src := filepath.Join(dir, "extra.json")
	require.NoError(t, project.SaveLibrary(src, project.StationLibrary{Stations: []model.StationSpec{
		model.NewStation(3, "Duplicate", 1, 1, 0, 5),
		model.NewStation(9, "Paint", 2, 2, 1, 50),
	}}))
	lib := filepath.Join(dir, "lib", "stations.json")
	require.NoError(t, project.SaveLibrary(lib, project.StationLibrary{}))

	out, err := runCLI(context.Background(), "import", src, "-c", cfg, "--merge", "--library", lib)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 stations")

	loaded, err := project.LoadRunConfig(cfg)
	require.NoError(t, err)
	require.Len(t, loaded.Stations, 5)
	assert.Equal(t, "Shipping", loaded.Stations[3].Name, "existing id wins")
	assert.Equal(t, "Paint", loaded.Stations[4].Name)

	saved, err := project.LoadLibrary(lib)
	require.NoError(t, err)
	assert.Len(t, saved.Stations, 2)
}

func TestImportWithNoStationsFails(t *testing.T) {
	dir := t.TempDir()
	csv := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(csv, []byte("Name,Width,Height,Cycle\nA,x,1,1\n"), 0644))

	_, err := runCLI(context.Background(), "import", csv, "-c", filepath.Join(dir, "c.toml"))
	assert.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "c.toml"))
}

func TestWithSuffix(t *testing.T) {
	assert.Equal(t, "out/layout_interrupted.json", withSuffix("out/layout.json", interruptedSuffix))
	assert.Equal(t, "chart_interrupted", withSuffix("chart", interruptedSuffix))
	assert.Equal(t, "", withSuffix("", interruptedSuffix))
	assert.Equal(t, "a.pdf", withSuffix("a.pdf", ""))
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, log.DebugLevel)

	assert.Same(t, l, loggerFromContext(withLogger(context.Background(), l)))
	assert.Same(t, log.Default(), loggerFromContext(context.Background()))

	l.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}
