package domain

// ProbeResult is the outcome of invoking a VCS tool once.
type ProbeResult struct {
	// ToolUnavailable is set when the executable could not be found. ExitCode
	// and Output are zero in that case.
	ToolUnavailable bool
	// Command is the argv that was run, after placeholder substitution.
	Command  []string
	ExitCode int
	// Output is the combined stdout and stderr, with invalid UTF-8 replaced.
	Output string
}

// ToolMissing returns the result reported for an executable that does not exist.
func ToolMissing(argv []string) ProbeResult {
	return ProbeResult{ToolUnavailable: true, Command: argv}
}
