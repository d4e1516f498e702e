package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ocrbench/pkg/buildinfo"
	"github.com/matzehuels/ocrbench/pkg/cache"
	"github.com/matzehuels/ocrbench/pkg/ocr"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "ocrbench"

	// defaultTimeLimit is the per-instance wall-clock limit.
	defaultTimeLimit = "300s"

	// cacheVersion scopes cache keys so a change in the bound computation
	// does not read stale entries.
	cacheVersion = "v1:"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogError = log.ErrorLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "ocrbench runs one-sided crossing minimization solvers and scores them",
		Long: `ocrbench runs a solver executable on every instance of a directory under a
wall-clock and memory budget, checks that each output is a permutation of the
free layer and counts the crossings it produces.`,
		Version:      buildinfo.Resolve(),
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.runCommand())
	root.AddCommand(c.scoreCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.boundCommand())
	root.AddCommand(c.visualizeCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Shared Helpers
// =============================================================================

// newCache opens the lower-bound cache. A cache that cannot be opened is
// replaced by a NullCache so a batch never fails on it.
func (c *CLI) newCache(noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	dir, err := cache.DefaultDir()
	if err != nil {
		c.Logger.Debug("cache disabled", "err", err)
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Debug("cache disabled", "dir", dir, "err", err)
		return cache.NewNullCache()
	}
	return fc
}

func newKeyer() cache.Keyer {
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), cacheVersion)
}

// loadInstance parses an instance file and logs its size.
func (c *CLI) loadInstance(path string, dedupe bool) (*ocr.Graph, error) {
	g, err := ocr.ParseFile(path, ocr.ParseOptions{MergeDuplicates: dedupe})
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("instance loaded", "path", path,
		"fixed", g.FixedCount(), "free", g.FreeCount(), "edges", g.EdgeCount())
	return g, nil
}
