// Package cmd provides the CLI commands for runstamp.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var (
	// Version info (set at build time via ldflags)
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"

	// Global flags
	dbPath     string
	jsonOutput bool
	logLevel   string
	configPath string
)

// annotationNoStorage marks commands that run without opening the database.
const annotationNoStorage = "runstamp/no-storage"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "runstamp",
	Short: "runstamp - stamp experiment runs with VCS provenance",
	Long: `runstamp resolves the commit of the repository enclosing a directory,
and whether its working tree has uncommitted changes, without knowing in
advance which version control system is in use.

Recorded runs keep that provenance so results can be traced back to code.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeServices(cmd)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return cleanupServices()
	},
}

// exitError carries a process exit code other than 1.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// exitCode returns the process exit code for err.
func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := setupSignalHandler()

	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		// PersistentPostRunE is skipped when RunE fails.
		_ = cleanupServices()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the database file (default: ~/.runstamp/runstamp.db)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results in JSON format")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file (default: ~/.runstamp/config.toml)")

	// Set version - cobra handles --version automatically
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("runstamp\nVersion: {{.Version}}\n")

	// Add subcommands
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(schemesCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(mcpCmd)
}

// commandContext returns the context the command was executed with.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
