package config

import (
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// allModules is the loaded_modules sentinel meaning "everything discovered".
const allModules = "all"

// Config represents the complete islet configuration file.
type Config struct {
	LoadedModules LoadedModules  `yaml:"loaded_modules"`
	ModuleConfig  map[string]any `yaml:"module_config,omitempty"`
	Layout        string         `yaml:"layout,omitempty"`
	LayoutConfigs map[string]any `yaml:"layout_configs,omitempty"`
	GeneralStyle  GeneralStyle   `yaml:"general_style_config"`
	Control       ControlConfig  `yaml:"control,omitempty"`

	// Fingerprint is the BLAKE3 hash of the file the config was parsed from.
	Fingerprint string `yaml:"-"`
}

// GeneralStyle holds style values the host applies to every activity widget.
type GeneralStyle struct {
	MinimalHeight uint    `yaml:"minimal_height"`
	BlurRadius    float64 `yaml:"blur_radius"`
}

// ControlConfig defines the local control API. It is read once at startup.
type ControlConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// LoadedModules selects which discovered modules are constructed.
//
// Accepted forms:
//   - scalar: loaded_modules: all
//   - list:   loaded_modules: [clock, battery]
//
// A list containing "all" is treated as the scalar form.
type LoadedModules struct {
	All   bool
	Names []string
}

// AllLoaded returns the "load everything" selection.
func AllLoaded() LoadedModules {
	return LoadedModules{All: true}
}

// Only returns an explicit, ordered selection.
func Only(names ...string) LoadedModules {
	return LoadedModules{Names: names}
}

func (l LoadedModules) String() string {
	if l.All {
		return allModules
	}
	return "[" + strings.Join(l.Names, ", ") + "]"
}

func (l *LoadedModules) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		v := strings.TrimSpace(n.Value)
		if v != allModules {
			return fmt.Errorf("loaded_modules: scalar value must be %q (got %q)", allModules, v)
		}
		*l = AllLoaded()
		return nil
	case yaml.SequenceNode:
		names := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("loaded_modules: entries must be module names")
			}
			name := strings.TrimSpace(item.Value)
			if name == "" {
				return fmt.Errorf("loaded_modules: empty module name")
			}
			names = append(names, name)
		}
		if slices.Contains(names, allModules) {
			*l = AllLoaded()
			return nil
		}
		*l = Only(names...)
		return nil
	default:
		return fmt.Errorf("loaded_modules must be %q or a list of module names", allModules)
	}
}

func (l LoadedModules) MarshalYAML() (any, error) {
	if l.All {
		return allModules, nil
	}
	return l.Names, nil
}

// Defaults returns the compiled-in configuration used when no file parses.
func Defaults() *Config {
	return &Config{
		LoadedModules: AllLoaded(),
		ModuleConfig:  make(map[string]any),
		Layout:        "simple",
		LayoutConfigs: make(map[string]any),
		GeneralStyle: GeneralStyle{
			MinimalHeight: 40,
			BlurRadius:    6.0,
		},
		Control: ControlConfig{
			Enabled: false,
			Listen:  "127.0.0.1:7878",
		},
	}
}
