// Package doctor validates an islet config directory without starting the
// panel.
package doctor

import (
	"errors"
	"fmt"
	"net"
	"os"
	"slices"
	"sort"

	"github.com/mattjoyce/islet/internal/config"
	"github.com/mattjoyce/islet/internal/layout"
	"github.com/mattjoyce/islet/internal/loader"
	"github.com/mattjoyce/islet/internal/log"
	"github.com/mattjoyce/islet/internal/registry"
	"github.com/mattjoyce/islet/internal/style"
	"github.com/mattjoyce/islet/internal/watch"
	"github.com/mattjoyce/islet/pkg/abi"
)

// Result holds the outcome of a validation run.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// Issue describes a single validation error or warning.
type Issue struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
}

// Doctor checks configuration, stylesheet and modules the way the host would
// load them. Modules are constructed and configured but never initialised.
type Doctor struct {
	paths    config.Paths
	opener   loader.Opener
	compiler style.Compiler
	checkFS  func(string) error
}

// New creates a Doctor. A nil opener means loader.NativeOpener and a nil
// compiler means style.NewSCSSLite.
func New(paths config.Paths, opener loader.Opener, compiler style.Compiler) *Doctor {
	if compiler == nil {
		compiler = style.NewSCSSLite()
	}
	return &Doctor{
		paths:    paths,
		opener:   opener,
		compiler: compiler,
		checkFS:  watch.CheckLocal,
	}
}

// Validate runs all checks and returns a result.
func (d *Doctor) Validate() *Result {
	r := &Result{Valid: true}

	cfg := d.validateConfigFile(r)
	d.warnMissingEnvVars(r)
	d.validateLayout(r, cfg)
	d.validateStylesheet(r)
	d.validateModules(r, cfg)
	d.validateControl(r, cfg)
	d.warnNetworkFilesystem(r)

	r.Valid = len(r.Errors) == 0
	return r
}

func (d *Doctor) addError(r *Result, category, field, msg string) {
	r.Errors = append(r.Errors, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) addWarning(r *Result, category, field, msg string) {
	r.Warnings = append(r.Warnings, Issue{Category: category, Field: field, Message: msg})
}

// validateConfigFile parses the config file. The remaining checks run
// against defaults when it is missing or invalid.
func (d *Doctor) validateConfigFile(r *Result) *config.Config {
	cfg, err := config.Load(d.paths.ConfigFile)
	switch {
	case err == nil:
		return cfg
	case errors.Is(err, config.ErrNotFound):
		d.addWarning(r, "config", "", fmt.Sprintf("%s not found, defaults will be used", d.paths.ConfigFile))
	default:
		d.addError(r, "config", "", err.Error())
	}
	return config.Defaults()
}

// warnMissingEnvVars flags ${VAR} references with no value in the
// environment; they are left verbatim by the loader.
func (d *Doctor) warnMissingEnvVars(r *Result) {
	data, err := os.ReadFile(d.paths.ConfigFile)
	if err != nil {
		return
	}
	for _, name := range config.EnvRefs(data) {
		if _, ok := os.LookupEnv(name); !ok {
			d.addWarning(r, "env", name, fmt.Sprintf("${%s} is not set and will be used literally", name))
		}
	}
}

func (d *Doctor) validateLayout(r *Result, cfg *config.Config) {
	l, err := layout.New(cfg.Layout)
	if err != nil {
		d.addError(r, "layout", "layout", err.Error())
	} else {
		blob, ok, err := cfg.LayoutBlob(l.Name())
		if err == nil && ok {
			err = l.ParseConfig(blob)
		}
		if err != nil {
			d.addError(r, "layout", "layout_configs."+l.Name(), err.Error())
		}
	}

	known := layout.Names()
	for _, name := range sortedKeys(cfg.LayoutConfigs) {
		if !slices.Contains(known, name) {
			d.addWarning(r, "layout", "layout_configs."+name, fmt.Sprintf("no layout named %q", name))
		}
	}
}

func (d *Doctor) validateStylesheet(r *Result) {
	if _, err := os.Stat(d.paths.Stylesheet); errors.Is(err, os.ErrNotExist) {
		d.addWarning(r, "style", "", fmt.Sprintf("%s not found, the fallback style will be used", d.paths.Stylesheet))
		return
	}
	if _, err := d.compiler.Compile(d.paths.Stylesheet); err != nil {
		d.addError(r, "style", "", err.Error())
	}
}

// validateModules discovers, constructs and configures the selected modules.
func (d *Doctor) validateModules(r *Result, cfg *config.Config) {
	ldr := loader.New(d.opener, log.Discard(), loader.Hooks{
		LoadFailed: func(path string, err error) {
			d.addError(r, "modules", path, err.Error())
		},
		ConstructFailed: func(name string, err error) {
			d.addError(r, "modules", name, fmt.Sprintf("constructor failed: %v", err))
		},
	})

	ctors, err := ldr.Discover(d.paths.ModulesDir)
	if err != nil {
		d.addWarning(r, "modules", "", err.Error())
		ctors = loader.Constructors{}
	}

	if !cfg.LoadedModules.All {
		for _, name := range cfg.LoadedModules.Names {
			if _, ok := ctors[name]; !ok {
				d.addWarning(r, "modules", "loaded_modules", fmt.Sprintf("module %q was not discovered", name))
			}
		}
	}

	reg := registry.New(log.Discard())
	order := ldr.Instantiate(ctors, cfg.LoadedModules, discardSender{}, reg)

	for _, name := range sortedKeys(cfg.ModuleConfig) {
		if !slices.Contains(order, name) {
			d.addWarning(r, "modules", "module_config."+name, fmt.Sprintf("module %q is not loaded, its config is unused", name))
		}
	}

	report := config.PushToModules(cfg, reg, log.Discard())
	for _, name := range sortedKeys(report.Failed) {
		d.addError(r, "modules", "module_config."+name, report.Failed[name].Error())
	}
}

func (d *Doctor) validateControl(r *Result, cfg *config.Config) {
	if !cfg.Control.Enabled {
		return
	}
	host, _, err := net.SplitHostPort(cfg.Control.Listen)
	if err != nil {
		d.addError(r, "control", "control.listen", err.Error())
		return
	}
	if ip := net.ParseIP(host); host != "localhost" && (ip == nil || !ip.IsLoopback()) {
		d.addWarning(r, "control", "control.listen", "control API is unauthenticated and should listen on loopback")
	}
}

func (d *Doctor) warnNetworkFilesystem(r *Result) {
	if err := d.checkFS(d.paths.Root); errors.Is(err, watch.ErrNetworkFilesystem) {
		d.addWarning(r, "watch", "", err.Error())
	}
}

type discardSender struct{}

func (discardSender) Send(abi.UICommand) {}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
