// Package cli provides the cobra commands of the sercha-extract
// diagnostic tool.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-extract/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-extract/internal/logger"
)

// ServiceBuilder creates the diagnostics service from a config path.
// The returned cleanup func is called after the command finishes.
type ServiceBuilder func(configPath string) (driving.Diagnostics, func() error, error)

var (
	version = "dev"

	configPath string
	verbose    bool

	diagnostics    driving.Diagnostics
	serviceBuilder ServiceBuilder
	cleanup        func() error
)

var rootCmd = &cobra.Command{
	Use:   "sercha-extract",
	Short: "Inspect and exercise extraction connectors",
	Long: `sercha-extract drives the bundled connectors outside an indexing
pipeline. Use it to check that a source is configured and reachable,
and to run a single pass and look at the entities it produces.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupServices,
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		if cleanup == nil {
			return nil
		}
		err := cleanup()
		cleanup = nil
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (default ~/.sercha/extract.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func setupServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	logger.SetOutput(cmd.ErrOrStderr())
	if diagnostics != nil || serviceBuilder == nil {
		return nil
	}
	svc, done, err := serviceBuilder(configPath)
	if err != nil {
		return err
	}
	diagnostics = svc
	cleanup = done
	return nil
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetServiceBuilder registers how services are built once flags are parsed.
func SetServiceBuilder(b ServiceBuilder) {
	serviceBuilder = b
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func requireDiagnostics() (driving.Diagnostics, error) {
	if diagnostics == nil {
		return nil, errors.New("diagnostics service not configured")
	}
	return diagnostics, nil
}
