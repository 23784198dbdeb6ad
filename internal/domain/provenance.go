package domain

// Resolution is the provenance of a directory: the canonical commit string and
// whether the working tree has uncommitted changes.
type Resolution struct {
	// Commit has the shape "<scheme>:<raw-commit-id>".
	Commit   string
	Dirty    bool
	Scheme   string
	RepoRoot string
}

// FormatCommit combines a scheme name and a raw commit id into the canonical
// commit string. The raw id is used verbatim.
func FormatCommit(scheme, rawCommit string) string {
	return scheme + ":" + rawCommit
}
