package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverConfigDirPriority(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	t.Setenv("HOME", "/home/tester")

	dir, err := DiscoverConfigDir("/explicit", Env{ConfigDir: "/from-env"})
	require.NoError(t, err)
	assert.Equal(t, "/explicit", dir)

	dir, err = DiscoverConfigDir("", Env{ConfigDir: "/from-env"})
	require.NoError(t, err)
	assert.Equal(t, "/from-env", dir)

	dir, err = DiscoverConfigDir("", Env{})
	require.NoError(t, err)
	assert.Equal(t, "/xdg/islet", dir)

	t.Setenv("XDG_CONFIG_HOME", "")
	dir, err = DiscoverConfigDir("", Env{})
	require.NoError(t, err)
	assert.Equal(t, "/home/tester/.config/islet", dir)
}

func TestResolveModulesOverride(t *testing.T) {
	p, err := Resolve("/cfg", "", Env{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/cfg", ConfigFileName), p.ConfigFile)
	assert.Equal(t, filepath.Join("/cfg", StylesheetName), p.Stylesheet)

	p, err = Resolve("/cfg", "/mods", Env{ModulesDir: "/env-mods"})
	require.NoError(t, err)
	assert.Equal(t, "/mods", p.ModulesDir)

	p, err = Resolve("/cfg", "", Env{ModulesDir: "/env-mods"})
	require.NoError(t, err)
	assert.Equal(t, "/env-mods", p.ModulesDir)
}

func TestParseEnv(t *testing.T) {
	t.Setenv("ISLET_CONFIG_DIR", "/c")
	t.Setenv("ISLET_HEADLESS", "true")
	e, err := ParseEnv()
	require.NoError(t, err)
	assert.Equal(t, "/c", e.ConfigDir)
	assert.True(t, e.Headless)
	assert.Equal(t, "info", e.LogLevel)
	assert.Equal(t, "json", e.LogFormat)
}
