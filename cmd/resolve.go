package cmd

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/xvierd/runstamp/internal/adapters/tui"
	"github.com/xvierd/runstamp/internal/domain"
)

// Exit codes for resolve failures the caller may want to branch on.
const (
	exitRepositoryNotFound = 2
	exitNoCommitAvailable  = 3
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve [dir]",
	Short: "Print the commit and dirty state of the enclosing repository",
	Long: `Find the nearest repository enclosing dir (default: the current directory)
and print its current commit as "<scheme>:<id>" along with whether the working
tree has uncommitted changes.

Exits with 2 when no repository encloses dir and 3 when the repository has
no commit yet.`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{annotationNoStorage: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}

		res, err := app.resolver.Resolve(commandContext(cmd), dir)
		if err != nil {
			return resolveError(err)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), resolutionJSON(res))
		}
		tui.NewRenderer(cmd.OutOrStdout()).Resolution(res)
		return nil
	},
}

// resolveError maps resolution failures to exit codes.
func resolveError(err error) error {
	switch {
	case errors.Is(err, domain.ErrRepositoryNotFound):
		return &exitError{code: exitRepositoryNotFound, err: err}
	case errors.Is(err, domain.ErrNoCommitAvailable):
		return &exitError{code: exitNoCommitAvailable, err: err}
	default:
		return err
	}
}
