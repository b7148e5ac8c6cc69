// Package cli assembles the discover/verify/cache subcommands into
// the sigint cobra command tree, wiring the domain packages together
// the way cmd/sigint/main.go needs but none of those packages should
// know about directly.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/censys/sigint/internal/config"
	pkglog "github.com/censys/sigint/internal/pkg/log"
)

// app carries the process-wide state every subcommand needs: the data
// directory, the merged runtime configuration, and a logger.
type app struct {
	dataDir string
	runtime config.Runtime
	logger  *slog.Logger
}

func dataDir() (string, error) {
	if override := os.Getenv("SIGINT_DATA_DIR"); override != "" {
		if err := os.MkdirAll(override, 0o700); err != nil {
			return "", err
		}
		return override, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".config", "sigint")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// NewRootCommand builds the full sigint command tree.
func NewRootCommand() (*cobra.Command, error) {
	dir, err := dataDir()
	if err != nil {
		return nil, fmt.Errorf("cli: resolve data dir: %w", err)
	}

	defaults := config.NewDefaults()
	runtime := config.NewRuntime(defaults, dir)

	a := &app{dataDir: dir}

	root := &cobra.Command{
		Use:          "sigint",
		Short:        "Web-application and brand reconnaissance pipeline",
		SilenceUsage: true,
	}

	if err := config.BindRuntimeFlags(root.PersistentFlags(), runtime); err != nil {
		return nil, err
	}

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		r, err := config.LoadRuntime(a.dataDir)
		if err != nil {
			return err
		}
		a.runtime = r
		a.logger = pkglog.New(r.Debug, os.Stderr)
		return nil
	}

	root.AddCommand(
		newDiscoverCommand(a),
		newVerifyCommand(a),
		newCacheCommand(a),
		newVersionCommand(a),
	)

	return root, nil
}
