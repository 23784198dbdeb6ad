package domain

import (
	"strings"
	"time"
)

// Run is a recorded experiment run stamped with VCS provenance.
type Run struct {
	ID   string
	Name string
	Dir  string
	// Commit is empty when provenance could not be resolved; ProvenanceNote
	// then says why.
	Commit         string
	Dirty          bool
	ProvenanceNote string
	Tags           []string
	CreatedAt      time.Time
}

// NewRun creates a run for the given directory.
func NewRun(name, dir string) (*Run, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyRunName
	}
	return &Run{
		ID:        newRunID(),
		Name:      name,
		Dir:       dir,
		Tags:      []string{},
		CreatedAt: time.Now(),
	}, nil
}

// SetProvenance stamps the run with a resolved commit.
func (r *Run) SetProvenance(res *Resolution) {
	r.Commit = res.Commit
	r.Dirty = res.Dirty
	r.ProvenanceNote = ""
}

// MarkUnresolved records why the run carries no commit.
func (r *Run) MarkUnresolved(reason string) {
	r.Commit = ""
	r.Dirty = false
	r.ProvenanceNote = reason
}

// HasProvenance returns true if the run carries a commit.
func (r *Run) HasProvenance() bool {
	return r.Commit != ""
}

// ShortCommit returns the commit string with the raw id cut to 7 characters.
func (r *Run) ShortCommit() string {
	scheme, raw, ok := strings.Cut(r.Commit, ":")
	if !ok || len(raw) <= 7 {
		return r.Commit
	}
	return scheme + ":" + raw[:7]
}
