package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// ConfigFileName is the configuration file inside the config directory.
	ConfigFileName = "islet.yaml"
	// StylesheetName is the stylesheet source inside the config directory.
	StylesheetName = "islet.scss"
	// ModulesDirName is the subdirectory holding module shared objects.
	ModulesDirName = "modules"
)

// Paths locates everything islet reads from disk.
type Paths struct {
	Root       string
	ConfigFile string
	Stylesheet string
	ModulesDir string
}

// PathsFor lays out the well-known files under root. The modules directory
// follows the build: release builds use root/modules.
func PathsFor(root string) Paths {
	modules := defaultModulesDir(root)
	return Paths{
		Root:       root,
		ConfigFile: filepath.Join(root, ConfigFileName),
		Stylesheet: filepath.Join(root, StylesheetName),
		ModulesDir: modules,
	}
}

// DiscoverConfigDir resolves the config directory.
//
// Priority: explicit path, $ISLET_CONFIG_DIR (via env), $XDG_CONFIG_HOME/islet,
// ~/.config/islet. The directory is not required to exist.
func DiscoverConfigDir(explicit string, env Env) (string, error) {
	candidates := []string{explicit, env.ConfigDir}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		candidates = append(candidates, filepath.Join(xdg, "islet"))
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		abs, err := filepath.Abs(c)
		if err != nil {
			return "", fmt.Errorf("failed to resolve config dir %q: %w", c, err)
		}
		return abs, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, ".config", "islet"), nil
}

// Resolve combines config dir discovery with the modules dir override.
func Resolve(explicitDir, explicitModules string, env Env) (Paths, error) {
	root, err := DiscoverConfigDir(explicitDir, env)
	if err != nil {
		return Paths{}, err
	}
	p := PathsFor(root)
	for _, m := range []string{explicitModules, env.ModulesDir} {
		if m == "" {
			continue
		}
		abs, err := filepath.Abs(m)
		if err != nil {
			return Paths{}, fmt.Errorf("failed to resolve modules dir %q: %w", m, err)
		}
		p.ModulesDir = abs
		break
	}
	return p, nil
}
