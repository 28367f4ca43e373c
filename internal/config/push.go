package config

import (
	"fmt"
	"log/slog"

	"github.com/mattjoyce/islet/pkg/abi"
	"gopkg.in/yaml.v3"
)

// ModuleSet is the part of the registry PushToModules needs.
type ModuleSet interface {
	Each(fn func(name string, m abi.Module))
}

// PushReport records what happened to each registered module during a push.
type PushReport struct {
	Pushed  []string
	Skipped []string
	Failed  map[string]error
}

// ModuleBlob serializes a module's config sub-tree to the wire form handed to
// UpdateConfig. ok is false when the module has no entry.
func (c *Config) ModuleBlob(name string) (blob string, ok bool, err error) {
	raw, ok := c.ModuleConfig[name]
	if !ok {
		return "", false, nil
	}
	data, err := yaml.Marshal(raw)
	if err != nil {
		return "", true, fmt.Errorf("failed to serialize config for module %q: %w", name, err)
	}
	return string(data), true, nil
}

// LayoutBlob serializes the config sub-tree for the named layout.
func (c *Config) LayoutBlob(name string) (blob string, ok bool, err error) {
	raw, ok := c.LayoutConfigs[name]
	if !ok {
		return "", false, nil
	}
	data, err := yaml.Marshal(raw)
	if err != nil {
		return "", true, fmt.Errorf("failed to serialize config for layout %q: %w", name, err)
	}
	return string(data), true, nil
}

// PushToModules hands each registered module its module_config entry.
// Modules without an entry are skipped. A failing module is logged and does
// not stop the push to the rest.
func PushToModules(cfg *Config, modules ModuleSet, logger *slog.Logger) PushReport {
	report := PushReport{Failed: make(map[string]error)}
	modules.Each(func(name string, m abi.Module) {
		blob, ok, err := cfg.ModuleBlob(name)
		if err != nil {
			logger.Error("module config not pushed", "module", name, "error", err)
			report.Failed[name] = err
			return
		}
		if !ok {
			logger.Debug("no config entry for module, keeping its defaults", "module", name)
			report.Skipped = append(report.Skipped, name)
			return
		}
		if err := m.UpdateConfig(blob); err != nil {
			logger.Error("module rejected config", "module", name, "error", err)
			report.Failed[name] = err
			return
		}
		report.Pushed = append(report.Pushed, name)
	})
	return report
}
