package cmd

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/xvierd/runstamp/internal/adapters/tui"
	"github.com/xvierd/runstamp/internal/services"
)

var (
	recordDir           string
	recordTags          []string
	recordRequireCommit bool
)

// recordCmd represents the record command
var recordCmd = &cobra.Command{
	Use:   "record <name>",
	Short: "Record a run stamped with the current commit",
	Long: `Record a named run together with the commit and dirty state of the
repository enclosing its directory.

When no commit can be resolved the run is still recorded with a note saying
why, unless --require-commit is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		run, err := app.runs.Record(commandContext(cmd), services.RecordRunRequest{
			Name:          args[0],
			Dir:           recordDir,
			Tags:          recordTags,
			RequireCommit: recordRequireCommit,
		})
		if err != nil {
			if recordRequireCommit {
				return resolveError(err)
			}
			return errors.Wrap(err, "failed to record run")
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), runJSON(run))
		}

		if !run.HasProvenance() {
			tui.NewRenderer(cmd.ErrOrStderr()).Warning("recorded without commit: " + run.ProvenanceNote)
		}
		tui.NewRenderer(cmd.OutOrStdout()).Run(run)
		return nil
	},
}

func init() {
	recordCmd.Flags().StringVarP(&recordDir, "dir", "d", "", "Directory the run executes in (default: current directory)")
	recordCmd.Flags().StringSliceVarP(&recordTags, "tag", "t", nil, "Tag for the run (repeatable or comma-separated)")
	recordCmd.Flags().BoolVar(&recordRequireCommit, "require-commit", false, "Fail instead of recording a run without a commit")
}
