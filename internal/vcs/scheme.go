// Package vcs resolves the commit and working-tree state of the nearest
// enclosing version-control repository. Each supported VCS is described by a
// Scheme: the marker that identifies a repository root and the commands (and
// output patterns) used to read its commit and status.
package vcs

import (
	"regexp"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/xvierd/runstamp/internal/domain"
)

// RepoPlaceholder is replaced by the repository root in command templates.
const RepoPlaceholder = "{repo}"

// SchemeSpec is the data descriptor a Scheme is built from.
type SchemeSpec struct {
	Name   string `mapstructure:"name"`
	Marker string `mapstructure:"marker"`

	CommitCommand []string `mapstructure:"commit_command"`
	CommitPattern string   `mapstructure:"commit_pattern"`
	CommitOKCodes []int    `mapstructure:"commit_ok_codes"`

	StatusCommand []string `mapstructure:"status_command"`
	StatusPattern string   `mapstructure:"status_pattern"`
	StatusOKCodes []int    `mapstructure:"status_ok_codes"`
}

// Scheme describes how to detect one VCS kind and query it. Schemes are
// immutable once built.
type Scheme struct {
	name   string
	marker string
	commit Probe
	status Probe
}

// NewScheme validates spec and builds a Scheme from it.
func NewScheme(spec SchemeSpec) (Scheme, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return Scheme{}, errors.New("scheme name is required")
	}
	if strings.ContainsRune(spec.Name, ':') {
		return Scheme{}, errors.Newf("scheme %q: name must not contain ':'", spec.Name)
	}
	if strings.TrimSpace(spec.Marker) == "" {
		return Scheme{}, errors.Newf("scheme %q: root marker is required", spec.Name)
	}
	commit, err := NewProbe(spec.CommitCommand, spec.CommitPattern, spec.CommitOKCodes)
	if err != nil {
		return Scheme{}, errors.Wrapf(err, "scheme %q: commit probe", spec.Name)
	}
	status, err := NewProbe(spec.StatusCommand, spec.StatusPattern, spec.StatusOKCodes)
	if err != nil {
		return Scheme{}, errors.Wrapf(err, "scheme %q: status probe", spec.Name)
	}
	return Scheme{
		name:   spec.Name,
		marker: spec.Marker,
		commit: commit,
		status: status,
	}, nil
}

// MustScheme is like NewScheme but panics on an invalid spec. It is meant for
// built-in schemes.
func MustScheme(spec SchemeSpec) Scheme {
	s, err := NewScheme(spec)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Scheme) Name() string   { return s.name }
func (s Scheme) Marker() string { return s.marker }

// CommitProbe returns the probe that reads the current commit id.
func (s Scheme) CommitProbe() Probe { return s.commit }

// StatusProbe returns the probe that reports working-tree changes.
func (s Scheme) StatusProbe() Probe { return s.status }

// Spec returns the descriptor the scheme was built from.
func (s Scheme) Spec() SchemeSpec {
	return SchemeSpec{
		Name:          s.name,
		Marker:        s.marker,
		CommitCommand: s.commit.Template(),
		CommitPattern: s.commit.Pattern(),
		CommitOKCodes: s.commit.OKCodes(),
		StatusCommand: s.status.Template(),
		StatusPattern: s.status.Pattern(),
		StatusOKCodes: s.status.OKCodes(),
	}
}

// Probe is one query against a VCS tool: a command template, a pattern that
// extracts the answer from the start of the output, and the nonzero exit codes
// that mean "ran fine, nothing to report".
type Probe struct {
	template []string
	source   string
	pattern  *regexp.Regexp
	okCodes  []int
}

// NewProbe validates and builds a Probe. The template must contain
// RepoPlaceholder exactly once and the pattern must have a capture group.
func NewProbe(template []string, pattern string, okCodes []int) (Probe, error) {
	if len(template) == 0 || strings.TrimSpace(template[0]) == "" {
		return Probe{}, errors.New("command template is empty")
	}
	placeholders := 0
	for _, arg := range template {
		placeholders += strings.Count(arg, RepoPlaceholder)
	}
	if placeholders != 1 {
		return Probe{}, errors.Newf("command template %q must contain %s exactly once, found %d",
			strings.Join(template, " "), RepoPlaceholder, placeholders)
	}
	if pattern == "" {
		return Probe{}, errors.New("output pattern is empty")
	}
	// Anchored so the pattern only matches at the start of the output.
	re, err := regexp.Compile(`\A(?:` + pattern + `)`)
	if err != nil {
		return Probe{}, errors.Wrapf(err, "invalid output pattern %q", pattern)
	}
	if re.NumSubexp() < 1 {
		return Probe{}, errors.Newf("output pattern %q has no capture group", pattern)
	}
	for _, code := range okCodes {
		if code == 0 {
			return Probe{}, errors.New("exit code 0 cannot be listed as a benign code")
		}
	}
	codes := slices.Clone(okCodes)
	slices.Sort(codes)
	return Probe{
		template: slices.Clone(template),
		source:   pattern,
		pattern:  re,
		okCodes:  slices.Compact(codes),
	}, nil
}

// Command returns the argv for repoDir.
func (p Probe) Command(repoDir string) []string {
	argv := make([]string, len(p.template))
	for i, arg := range p.template {
		argv[i] = strings.ReplaceAll(arg, RepoPlaceholder, repoDir)
	}
	return argv
}

func (p Probe) Template() []string { return slices.Clone(p.template) }
func (p Probe) Pattern() string    { return p.source }
func (p Probe) OKCodes() []int     { return slices.Clone(p.okCodes) }

// IsBenign reports whether a nonzero exit code means "no data" for this probe.
func (p Probe) IsBenign(code int) bool {
	_, found := slices.BinarySearch(p.okCodes, code)
	return found
}

// MatchKind tags the outcome of applying a probe to a result.
type MatchKind int

const (
	NoMatch MatchKind = iota
	Matched
)

// Match is the answer extracted from a probe result. Text is only set when
// Kind is Matched.
type Match struct {
	Kind MatchKind
	Text string
}

// Found returns true if the probe produced an answer.
func (m Match) Found() bool { return m.Kind == Matched }

// Resolve classifies res. A missing tool and a benign exit code both yield
// NoMatch; any other nonzero exit yields a *domain.CommandExecutionError
// carrying the captured output. On a zero exit the first capture group of
// the pattern, applied at the start of the output, is the answer; an empty
// capture counts as NoMatch.
func (p Probe) Resolve(res domain.ProbeResult) (Match, error) {
	if res.ToolUnavailable {
		return Match{Kind: NoMatch}, nil
	}
	if res.ExitCode != 0 {
		if p.IsBenign(res.ExitCode) {
			return Match{Kind: NoMatch}, nil
		}
		return Match{}, &domain.CommandExecutionError{
			Command:  slices.Clone(res.Command),
			ExitCode: res.ExitCode,
			Output:   res.Output,
		}
	}
	m := p.pattern.FindStringSubmatch(res.Output)
	if m == nil || m[1] == "" {
		return Match{Kind: NoMatch}, nil
	}
	return Match{Kind: Matched, Text: m[1]}, nil
}
