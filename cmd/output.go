package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/xvierd/runstamp/internal/domain"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal output")
	}
	_, err = fmt.Fprintln(w, string(jsonData))
	return err
}

func resolutionJSON(res *domain.Resolution) map[string]interface{} {
	return map[string]interface{}{
		"commit":    res.Commit,
		"dirty":     res.Dirty,
		"scheme":    res.Scheme,
		"repo_root": res.RepoRoot,
	}
}

func runJSON(run *domain.Run) map[string]interface{} {
	data := map[string]interface{}{
		"id":         run.ID,
		"name":       run.Name,
		"dir":        run.Dir,
		"commit":     nil,
		"dirty":      run.Dirty,
		"tags":       run.Tags,
		"created_at": run.CreatedAt.Format(time.RFC3339),
	}
	if run.HasProvenance() {
		data["commit"] = run.Commit
	} else {
		data["provenance_note"] = run.ProvenanceNote
	}
	return data
}
