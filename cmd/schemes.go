package cmd

import (
	"github.com/spf13/cobra"
	"github.com/xvierd/runstamp/internal/adapters/tui"
)

// schemesCmd represents the schemes command
var schemesCmd = &cobra.Command{
	Use:         "schemes",
	Short:       "List the active version control schemes in priority order",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationNoStorage: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		schemes := app.registry.Schemes()

		if jsonOutput {
			list := make([]map[string]interface{}, 0, len(schemes))
			for _, s := range schemes {
				list = append(list, map[string]interface{}{
					"name":            s.Name(),
					"marker":          s.Marker(),
					"commit_command":  s.CommitProbe().Template(),
					"commit_pattern":  s.CommitProbe().Pattern(),
					"commit_ok_codes": s.CommitProbe().OKCodes(),
					"status_command":  s.StatusProbe().Template(),
					"status_pattern":  s.StatusProbe().Pattern(),
					"status_ok_codes": s.StatusProbe().OKCodes(),
				})
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"backend": app.config.VCS.Backend,
				"schemes": list,
			})
		}

		tui.NewRenderer(cmd.OutOrStdout()).Schemes(schemes)
		return nil
	},
}
