package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/mattjoyce/islet/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlagsDefaultsFromEnv(t *testing.T) {
	env := config.Env{LogLevel: "debug", LogFormat: "text", Headless: true}
	o, err := parseFlags(nil, env, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "debug", o.logLevel)
	assert.Equal(t, "text", o.logFormat)
	assert.True(t, o.headless)
}

func TestParseFlagsOverrideEnv(t *testing.T) {
	env := config.Env{LogLevel: "debug", LogFormat: "text"}
	o, err := parseFlags([]string{
		"--config-dir", "/tmp/cfg",
		"--modules-dir", "/tmp/mods",
		"--log-level", "warn",
		"--headless",
	}, env, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/cfg", o.configDir)
	assert.Equal(t, "/tmp/mods", o.modulesDir)
	assert.Equal(t, "warn", o.logLevel)
	assert.True(t, o.headless)
}

func TestParseFlagsRejectsPositional(t *testing.T) {
	_, err := parseFlags([]string{"start"}, config.Env{}, &bytes.Buffer{})
	assert.Error(t, err)

	_, err = parseFlags([]string{"-h"}, config.Env{}, &bytes.Buffer{})
	assert.ErrorIs(t, err, flag.ErrHelp)
}

func TestRunVersion(t *testing.T) {
	var stderr bytes.Buffer
	code := run([]string{"--version"}, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stderr.String(), "islet version "+version)
}

func TestRunBadFlag(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, 2, run([]string{"--nope"}, &stderr))
}

func TestLogFilePath(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/var/state")
	p, err := logFilePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/var/state", "islet", "islet.log"), p)
}

func TestLogWriterHeadlessUsesStderr(t *testing.T) {
	var stderr bytes.Buffer
	w, closeFn, err := logWriter(true, &stderr)
	require.NoError(t, err)
	defer closeFn()
	assert.Same(t, &stderr, w)
}

func TestLogWriterCreatesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", dir)
	_, closeFn, err := logWriter(false, &bytes.Buffer{})
	require.NoError(t, err)
	closeFn()
	assert.FileExists(t, filepath.Join(dir, "islet", "islet.log"))
}

func TestRunCheck(t *testing.T) {
	root := t.TempDir()
	paths := config.PathsFor(root)
	require.NoError(t, os.WriteFile(paths.ConfigFile, []byte("loaded_modules: sometimes\n"), 0o644))

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, runCheck(paths, false, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "Configuration invalid")

	require.NoError(t, os.WriteFile(paths.ConfigFile, []byte("layout: simple\n"), 0o644))
	stdout.Reset()
	assert.Equal(t, 0, runCheck(paths, true, &stdout, &stderr))
	assert.Contains(t, stdout.String(), `"valid": true`)
}
