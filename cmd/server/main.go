// Package main is the entry point for the middleware demo server.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	watch       bool
	showVersion bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newRootCommand builds the server command with flags defaulted from the
// environment.
func newRootCommand() *cobra.Command {
	flags := cliFlags{}

	cmd := &cobra.Command{
		Use:   "middleware-express",
		Short: "HTTP demo server with rate limiting and response caching",
		Long: `Serves a small JSON API guarded by per-route fixed window rate limits,
bearer authentication and an in-memory response cache.

Examples:
  middleware-express                              # Start with defaults on :3000
  middleware-express --config configs/server.yaml # Load a configuration file
  PORT=8080 middleware-express                    # Override the listen port`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.showVersion {
				printVersion(cmd.OutOrStdout())
				return nil
			}
			return run(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVarP(&flags.configPath, "config", "c",
		getEnvOrDefault("SERVER_CONFIG_PATH", ""),
		"Path to configuration file (defaults are used when empty)")
	cmd.Flags().StringVar(&flags.logLevel, "log-level",
		getEnvOrDefault("SERVER_LOG_LEVEL", ""),
		"Log level (debug, info, warn, error); overrides the configuration file")
	cmd.Flags().StringVar(&flags.logFormat, "log-format",
		getEnvOrDefault("SERVER_LOG_FORMAT", ""),
		"Log format (json, console); overrides the configuration file")
	cmd.Flags().BoolVar(&flags.watch, "watch",
		getEnvBool("SERVER_WATCH_CONFIG", false),
		"Watch the configuration file and apply rate limit, cache and log level changes")
	cmd.Flags().BoolVar(&flags.showVersion, "version", false, "Show version information")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			printVersion(cmd.OutOrStdout())
		},
	})

	return cmd
}

// printVersion prints version information.
func printVersion(w io.Writer) {
	_, _ = fmt.Fprintf(w, "middleware-express version %s\n", version)
	_, _ = fmt.Fprintf(w, "  Build time: %s\n", buildTime)
	_, _ = fmt.Fprintf(w, "  Git commit: %s\n", gitCommit)
}
