package vcs

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/xvierd/runstamp/internal/domain"
)

// Registry is an ordered, immutable list of schemes. Order is priority: when
// several markers exist in the same directory, the earliest scheme wins.
// A Registry is safe for concurrent use.
type Registry struct {
	schemes []Scheme
}

// NewRegistry builds a registry from schemes in priority order.
func NewRegistry(schemes ...Scheme) (*Registry, error) {
	if len(schemes) == 0 {
		return nil, errors.New("registry requires at least one scheme")
	}
	seen := make(map[string]struct{}, len(schemes))
	for _, s := range schemes {
		if s.name == "" {
			return nil, errors.New("registry: scheme was not built with NewScheme")
		}
		if _, dup := seen[s.name]; dup {
			return nil, errors.Newf("registry: duplicate scheme %q", s.name)
		}
		seen[s.name] = struct{}{}
	}
	return &Registry{schemes: slices.Clone(schemes)}, nil
}

// DefaultRegistry returns a registry holding only the git scheme.
func DefaultRegistry() *Registry {
	return &Registry{schemes: []Scheme{GitScheme()}}
}

// Schemes returns the schemes in priority order.
func (r *Registry) Schemes() []Scheme {
	return slices.Clone(r.schemes)
}

// Lookup returns the scheme with the given name.
func (r *Registry) Lookup(name string) (Scheme, bool) {
	for _, s := range r.schemes {
		if s.name == name {
			return s, true
		}
	}
	return Scheme{}, false
}

// Locate walks from startDir up to the filesystem root and returns the first
// scheme whose marker exists, together with the directory holding it. The
// nearest directory wins, even if a farther one holds a different VCS.
func (r *Registry) Locate(startDir string) (Scheme, string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return Scheme{}, "", errors.Wrapf(err, "resolve %s", startDir)
	}

	current := dir
	for {
		for _, s := range r.schemes {
			if markerExists(filepath.Join(current, s.marker)) {
				return s, current, nil
			}
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return Scheme{}, "", errors.Wrapf(domain.ErrRepositoryNotFound, "searching from %s", dir)
}

// markerExists treats any stat failure as absence.
func markerExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
