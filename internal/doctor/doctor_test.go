package doctor

import (
	"os"
	"strings"
	"testing"

	"github.com/mattjoyce/islet/internal/config"
	"github.com/mattjoyce/islet/internal/loader"
	"github.com/mattjoyce/islet/internal/modtest"
	"github.com/mattjoyce/islet/internal/watch"
	"github.com/mattjoyce/islet/pkg/abi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	paths  config.Paths
	opener *modtest.Opener
}

func newFixture(t *testing.T, cfg, sheet string) *fixture {
	t.Helper()
	root := t.TempDir()
	paths := config.PathsFor(root)
	paths.ModulesDir = root + "/modules"
	require.NoError(t, os.MkdirAll(paths.ModulesDir, 0o755))
	if cfg != "" {
		require.NoError(t, os.WriteFile(paths.ConfigFile, []byte(cfg), 0o644))
	}
	if sheet != "" {
		require.NoError(t, os.WriteFile(paths.Stylesheet, []byte(sheet), 0o644))
	}

	op := modtest.NewOpener()
	ext := loader.LibraryExt()
	op.Export("clock"+ext, abi.RootSymbol, modtest.Descriptor("clock", &modtest.Journal{}, nil))
	modtest.Touch(t, paths.ModulesDir, "clock"+ext)
	return &fixture{paths: paths, opener: op}
}

func (f *fixture) validate() *Result {
	d := New(f.paths, f.opener, nil)
	d.checkFS = func(string) error { return nil }
	return d.Validate()
}

func messages(issues []Issue) string {
	var b strings.Builder
	for _, i := range issues {
		b.WriteString(i.Category + ": " + i.Field + ": " + i.Message + "\n")
	}
	return b.String()
}

const validConfig = `
loaded_modules: [clock]
module_config:
  clock:
    text: "12:00"
layout: simple
layout_configs:
  simple:
    orientation: vertical
`

func TestValidate_ValidSetup(t *testing.T) {
	f := newFixture(t, validConfig, "$c: red;\npanel { color: $c; }\n")
	r := f.validate()
	assert.True(t, r.Valid, messages(r.Errors))
	assert.Empty(t, r.Warnings, messages(r.Warnings))
}

func TestValidate_MissingFilesAreWarnings(t *testing.T) {
	f := newFixture(t, "", "")
	r := f.validate()
	assert.True(t, r.Valid, messages(r.Errors))
	warnings := messages(r.Warnings)
	assert.Contains(t, warnings, "defaults will be used")
	assert.Contains(t, warnings, "fallback style")
}

func TestValidate_BrokenConfig(t *testing.T) {
	f := newFixture(t, "loaded_modules: sometimes\n", "")
	r := f.validate()
	assert.False(t, r.Valid)
	require.NotEmpty(t, r.Errors)
	assert.Equal(t, "config", r.Errors[0].Category)
}

func TestValidate_BadStylesheet(t *testing.T) {
	f := newFixture(t, validConfig, "panel { color: $nope; }\n")
	r := f.validate()
	assert.False(t, r.Valid)
	assert.Contains(t, messages(r.Errors), "style")
}

func TestValidate_LayoutConfigRejected(t *testing.T) {
	f := newFixture(t, `
layout_configs:
  simple:
    orientation: diagonal
  grid:
    columns: 2
`, "")
	r := f.validate()
	assert.False(t, r.Valid)
	assert.Contains(t, messages(r.Errors), "layout_configs.simple")
	assert.Contains(t, messages(r.Warnings), `no layout named "grid"`)
}

func TestValidate_ModuleProblems(t *testing.T) {
	f := newFixture(t, `
loaded_modules: [clock, battery, wifi]
module_config:
  clock:
    colour: red
  weather:
    city: Hobart
`, "")
	ext := loader.LibraryExt()
	f.opener.Fail("broken"+ext, os.ErrInvalid)
	f.opener.Export("wifi"+ext, abi.RootSymbol, modtest.FailingDescriptor("wifi"))
	modtest.Touch(t, f.paths.ModulesDir, "broken"+ext, "wifi"+ext)

	r := f.validate()
	assert.False(t, r.Valid)

	errs := messages(r.Errors)
	assert.Contains(t, errs, "module_config.clock")
	assert.Contains(t, errs, "broken"+ext)
	assert.Contains(t, errs, "hardware not present")

	warnings := messages(r.Warnings)
	assert.Contains(t, warnings, `module "battery" was not discovered`)
	assert.Contains(t, warnings, `module "weather" is not loaded`)
}

func TestValidate_MissingEnvVar(t *testing.T) {
	t.Setenv("ISLET_TEST_SET", "x")
	f := newFixture(t, `
module_config:
  clock:
    text: "${ISLET_TEST_SET} ${ISLET_TEST_UNSET_VAR}"
`, "")
	r := f.validate()
	warnings := messages(r.Warnings)
	assert.Contains(t, warnings, "ISLET_TEST_UNSET_VAR")
	assert.NotContains(t, warnings, "ISLET_TEST_SET:")
}

func TestValidate_ControlListen(t *testing.T) {
	f := newFixture(t, "control:\n  enabled: true\n  listen: 0.0.0.0:7878\n", "")
	r := f.validate()
	assert.True(t, r.Valid, messages(r.Errors))
	assert.Contains(t, messages(r.Warnings), "loopback")

	f = newFixture(t, "control:\n  enabled: true\n  listen: nonsense\n", "")
	r = f.validate()
	assert.False(t, r.Valid)
}

func TestValidate_NetworkFilesystem(t *testing.T) {
	f := newFixture(t, validConfig, "")
	d := New(f.paths, f.opener, nil)
	d.checkFS = func(string) error { return watch.ErrNetworkFilesystem }
	r := d.Validate()
	assert.True(t, r.Valid)
	assert.Contains(t, messages(r.Warnings), "watch")
}

func TestFormatHuman(t *testing.T) {
	assert.Equal(t, "Configuration valid.\n", FormatHuman(&Result{Valid: true}))

	out := FormatHuman(&Result{
		Valid:    false,
		Errors:   []Issue{{Category: "style", Message: "boom"}},
		Warnings: []Issue{{Category: "modules", Field: "loaded_modules", Message: "gone"}},
	})
	assert.Contains(t, out, "Configuration invalid (1 error(s), 1 warning(s))")
	assert.Contains(t, out, "  ERROR [style] boom\n")
	assert.Contains(t, out, "  WARN  [modules] loaded_modules: gone\n")
}

func TestFormatJSON(t *testing.T) {
	out, err := FormatJSON(&Result{Valid: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"valid": true}`, out)
}
