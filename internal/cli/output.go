package cli

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// interruptedSuffix marks artifacts written after the search was cut short.
const interruptedSuffix = "_interrupted"

// withSuffix inserts suffix before the file extension.
func withSuffix(path, suffix string) string {
	if path == "" || suffix == "" {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}

// artifact is one optional presentation output.
type artifact struct {
	kind  string
	path  string
	write func(path string) error
}

// writeArtifacts writes every artifact with a path. Failures are logged
// and do not fail the command.
func writeArtifacts(w io.Writer, logger *log.Logger, artifacts []artifact) int {
	failed := 0
	for _, a := range artifacts {
		if a.path == "" {
			continue
		}
		if err := a.write(a.path); err != nil {
			logger.Error("failed to write "+a.kind, "path", a.path, "err", err)
			failed++
			continue
		}
		printFile(w, a.path)
	}
	return failed
}
