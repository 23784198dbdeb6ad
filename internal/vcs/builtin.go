package vcs

import "github.com/cockroachdb/errors"

// GitScheme returns the reference git scheme. A repository with no commits
// makes "git log" exit 128, which is treated as "no commit".
func GitScheme() Scheme {
	return MustScheme(SchemeSpec{
		Name:          "git",
		Marker:        ".git",
		CommitCommand: []string{"git", "--work-tree", RepoPlaceholder, "log", "-1"},
		CommitPattern: `commit ([a-f0-9]+)`,
		CommitOKCodes: []int{128},
		StatusCommand: []string{"git", "-C", RepoPlaceholder, "status", "-s"},
		StatusPattern: `(.)`,
	})
}

// MercurialScheme returns a scheme for Mercurial working copies. An empty
// repository prints nothing for "hg log", which reads as "no commit".
func MercurialScheme() Scheme {
	return MustScheme(SchemeSpec{
		Name:          "hg",
		Marker:        ".hg",
		CommitCommand: []string{"hg", "--cwd", RepoPlaceholder, "log", "-l", "1", "--template", `changeset {node}\n`},
		CommitPattern: `changeset ([a-f0-9]+)`,
		StatusCommand: []string{"hg", "--cwd", RepoPlaceholder, "status"},
		StatusPattern: `(.)`,
	})
}

var builtins = map[string]func() Scheme{
	"git": GitScheme,
	"hg":  MercurialScheme,
}

// BuiltinScheme returns the built-in scheme with the given name.
func BuiltinScheme(name string) (Scheme, error) {
	build, ok := builtins[name]
	if !ok {
		return Scheme{}, errors.Newf("unknown built-in scheme %q", name)
	}
	return build(), nil
}

// BuiltinNames lists the names accepted by BuiltinScheme.
func BuiltinNames() []string {
	return []string{"git", "hg"}
}
