package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xvierd/runstamp/internal/vcs"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, BackendExec, cfg.VCS.Backend)
	assert.Equal(t, 30*time.Second, cfg.VCS.CommandTimeout)
	assert.Equal(t, []string{"git"}, cfg.VCS.Schemes)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_CreatesDefaultFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err, "default config file should be written")
	assert.Equal(t, BackendExec, cfg.VCS.Backend)
	assert.Equal(t, 30*time.Second, cfg.VCS.CommandTimeout)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, filepath.IsAbs(cfg.Storage.DataDir), "~ should be expanded, got %q", cfg.Storage.DataDir)
}

func TestLoad_FileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[vcs]
backend = "go-git"
command_timeout = "5s"
schemes = ["hg", "git"]

[[vcs.custom]]
name = "fossil"
marker = ".fslckout"
commit_command = ["fossil", "info", "--chdir", "{repo}"]
commit_pattern = 'checkout:\s+([a-f0-9]+)'
commit_ok_codes = [1]
status_command = ["fossil", "changes", "--chdir", "{repo}"]
status_pattern = "(.)"

[storage]
data_dir = "/var/lib/runstamp"

[log]
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendGoGit, cfg.VCS.Backend)
	assert.Equal(t, 5*time.Second, cfg.VCS.CommandTimeout)
	assert.Equal(t, "/var/lib/runstamp", cfg.Storage.DataDir)
	assert.Equal(t, "debug", cfg.Log.Level)
	require.Len(t, cfg.VCS.Custom, 1)
	assert.Equal(t, []int{1}, cfg.VCS.Custom[0].CommitOKCodes)

	registry, err := cfg.VCS.Registry()
	require.NoError(t, err)
	var names []string
	for _, s := range registry.Schemes() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"hg", "git", "fossil"}, names)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, Save(path, DefaultConfig()))
	t.Setenv("RUNSTAMP_LOG_LEVEL", "error")
	t.Setenv("RUNSTAMP_VCS_COMMAND_TIMEOUT", "2m")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, 2*time.Minute, cfg.VCS.CommandTimeout)
}

func TestLoad_InvalidBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[vcs]\nbackend = \"svn\"\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := DefaultConfig()
	cfg.Storage.DataDir = "/data"
	cfg.VCS.CommandTimeout = 90 * time.Second
	cfg.VCS.Custom = []vcs.SchemeSpec{vcs.MercurialScheme().Spec()}
	cfg.VCS.Custom[0].Name = "hg2"

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data", loaded.Storage.DataDir)
	assert.Equal(t, 90*time.Second, loaded.VCS.CommandTimeout)
	require.Len(t, loaded.VCS.Custom, 1)
	assert.Equal(t, "hg2", loaded.VCS.Custom[0].Name)
	assert.Equal(t, vcs.MercurialScheme().Spec().CommitCommand, loaded.VCS.Custom[0].CommitCommand)
}

func TestVCSConfig_Registry(t *testing.T) {
	_, err := (&VCSConfig{Schemes: []string{"svn"}}).Registry()
	assert.Error(t, err, "unknown built-in")

	_, err = (&VCSConfig{}).Registry()
	assert.Error(t, err, "no schemes at all")

	_, err = (&VCSConfig{
		Schemes: []string{"git"},
		Custom:  []vcs.SchemeSpec{{Name: "bad", Marker: ".bad", CommitCommand: []string{"x"}}},
	}).Registry()
	assert.Error(t, err, "custom scheme without placeholder")
}
