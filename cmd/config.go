package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xvierd/runstamp/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect runstamp configuration",
}

var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Print the effective configuration",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNoStorage: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := app.config
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"vcs": map[string]interface{}{
					"backend":         cfg.VCS.Backend,
					"command_timeout": cfg.VCS.CommandTimeout.String(),
					"schemes":         cfg.VCS.Schemes,
					"custom":          len(cfg.VCS.Custom),
				},
				"storage": map[string]interface{}{"data_dir": cfg.Storage.DataDir},
				"log":     map[string]interface{}{"level": cfg.Log.Level},
				"mcp":     map[string]interface{}{"enabled": cfg.MCP.Enabled},
			})
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "vcs.backend          %s\n", cfg.VCS.Backend)
		fmt.Fprintf(out, "vcs.command_timeout  %s\n", cfg.VCS.CommandTimeout)
		fmt.Fprintf(out, "vcs.schemes          %v\n", cfg.VCS.Schemes)
		for _, s := range cfg.VCS.Custom {
			fmt.Fprintf(out, "vcs.custom           %s (%s)\n", s.Name, s.Marker)
		}
		fmt.Fprintf(out, "storage.data_dir     %s\n", cfg.Storage.DataDir)
		fmt.Fprintf(out, "log.level            %s\n", cfg.Log.Level)
		fmt.Fprintf(out, "mcp.enabled          %v\n", cfg.MCP.Enabled)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	// Skip loading so the path is printed even when the file is broken.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			var err error
			path, err = config.GetConfigPath()
			if err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}
