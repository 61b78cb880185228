// Command vocanote-license inspects and manages the VocaNote license of this
// machine and can serve the local license API.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Dynag1/VocaNote/internal/app"
	"github.com/Dynag1/VocaNote/internal/config"
	"github.com/Dynag1/VocaNote/internal/infrastructure"
	"github.com/Dynag1/VocaNote/internal/license"
)

// Version is overridden at build time with -ldflags
var Version = config.AppVersion

type rootOptions struct {
	licenseFile string
	logLevel    string
	// managerOptions and issueKey let tests replace the clock, fingerprint
	// and derived key
	managerOptions []license.Option
	issueKey       func() []byte
}

func main() {
	if err := newRootCmd(&rootOptions{}).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "vocanote-license",
		Short:         "VocaNote offline license engine",
		Long:          "Inspect, activate and serve the VocaNote license of this machine. No network access is required.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.licenseFile, "license-file", "", "license state file (default: beside the executable)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (default: warn, info for serve)")

	rootCmd.AddCommand(
		statusCmd(opts),
		activateCmd(opts),
		deactivateCmd(opts),
		activationCodeCmd(opts),
		fingerprintCmd(opts),
		serveCmd(opts),
		issueCmd(opts),
	)

	return rootCmd
}

// loadConfig applies flag overrides on top of config.LoadWithPaths and
// validates the result again
func loadConfig(opts *rootOptions, defaultLevel string) (*config.Config, *config.Paths, error) {
	paths, err := config.GetPaths()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	cfg, err := config.LoadWithPaths(paths)
	if err != nil {
		return nil, nil, err
	}

	if opts.licenseFile != "" {
		cfg.License.File = opts.licenseFile
	}
	switch {
	case opts.logLevel != "":
		cfg.Logging.Level = opts.logLevel
	case defaultLevel != "":
		cfg.Logging.Level = defaultLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, paths, nil
}

// withApplication builds the application, runs fn and releases it
func withApplication(cmd *cobra.Command, opts *rootOptions, defaultLevel string, fn func(context.Context, *app.Application) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = infrastructure.EnsureTraceID(ctx)

	cfg, paths, err := loadConfig(opts, defaultLevel)
	if err != nil {
		return err
	}

	logger, logFile, err := infrastructure.NewLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}
	paths.LogPathResolution(logger)

	application, err := app.NewApplication(ctx, cfg,
		app.WithLogger(logger),
		app.WithManagerOptions(opts.managerOptions...),
	)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := application.Close(context.WithoutCancel(ctx)); cerr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", cerr)
		}
	}()

	return fn(ctx, application)
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
