package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/xvierd/runstamp/internal/adapters/tui"
	"github.com/xvierd/runstamp/internal/domain"
)

var (
	runsFilter string
	runsYes    bool
)

// runsCmd groups the run history commands
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recorded runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs",
	Long:  `List recorded runs, newest first, optionally fuzzy-filtered by name.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runs, err := app.runs.ListRuns(commandContext(cmd), runsFilter)
		if err != nil {
			return errors.Wrap(err, "failed to list runs")
		}

		if jsonOutput {
			runList := make([]map[string]interface{}, 0, len(runs))
			for _, run := range runs {
				runList = append(runList, runJSON(run))
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"runs":  runList,
				"count": len(runList),
			})
		}

		tui.NewRenderer(cmd.OutOrStdout()).Runs(runs)
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		run, err := app.runs.GetRun(commandContext(cmd), args[0])
		if err != nil {
			if errors.Is(err, domain.ErrRunNotFound) {
				return errors.Newf("run not found: %s", args[0])
			}
			return errors.Wrap(err, "failed to get run")
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), runJSON(run))
		}
		tui.NewRenderer(cmd.OutOrStdout()).Run(run)
		return nil
	},
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a recorded run",
	Long:  `Delete a run by its ID. Use with caution - this cannot be undone.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		runID := args[0]

		// Get run info first for confirmation
		run, err := app.runs.GetRun(ctx, runID)
		if err != nil {
			if errors.Is(err, domain.ErrRunNotFound) {
				return errors.Newf("run not found: %s", runID)
			}
			return errors.Wrap(err, "failed to get run")
		}

		if !jsonOutput && !runsYes {
			fmt.Fprintf(cmd.OutOrStdout(), "Are you sure you want to delete run '%s' (%s)? [y/N]: ", run.Name, shortRunID(run.ID))
			confirm, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			confirm = strings.TrimSpace(confirm)
			if confirm != "y" && confirm != "Y" {
				fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled.")
				return nil
			}
		}

		if err := app.runs.DeleteRun(ctx, run.ID); err != nil {
			return errors.Wrap(err, "failed to delete run")
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{"deleted": true, "run_id": run.ID})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Run '%s' deleted.\n", run.Name)
		return nil
	},
}

func init() {
	runsListCmd.Flags().StringVarP(&runsFilter, "filter", "f", "", "Fuzzy filter on run names")
	runsDeleteCmd.Flags().BoolVarP(&runsYes, "yes", "y", false, "Delete without asking for confirmation")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsDeleteCmd)
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
