package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

var (
	// ErrNotFound is returned when the config file does not exist.
	ErrNotFound = errors.New("config file not found")
	// ErrEmptyConfig is returned for an empty file, usually one caught mid-write.
	ErrEmptyConfig = errors.New("config file is empty")
)

// Load reads, parses and validates the configuration file at path.
// Values not present in the file keep their Defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes raw YAML into a validated Config.
func Parse(data []byte) (*Config, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyConfig
	}

	interpolated := interpolateEnv(string(data))

	cfg := Defaults()
	dec := yaml.NewDecoder(bytes.NewBufferString(interpolated))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyConfig
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Layout == "" {
		cfg.Layout = Defaults().Layout
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg.Fingerprint = Fingerprint(data)
	return cfg, nil
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is.
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}

// EnvRefs lists the distinct ${VAR} names referenced in data, in order of
// first appearance.
func EnvRefs(data []byte) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range envVarPattern.FindAllSubmatch(data, -1) {
		name := string(m[1])
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// validate performs basic validation on the configuration.
func validate(cfg *Config) error {
	if cfg.GeneralStyle.BlurRadius < 0 || math.IsNaN(cfg.GeneralStyle.BlurRadius) || math.IsInf(cfg.GeneralStyle.BlurRadius, 0) {
		return fmt.Errorf("general_style_config.blur_radius must be a finite, non-negative number")
	}

	seen := make(map[string]bool, len(cfg.LoadedModules.Names))
	for _, name := range cfg.LoadedModules.Names {
		if seen[name] {
			return fmt.Errorf("loaded_modules: %q listed more than once", name)
		}
		seen[name] = true
	}

	if cfg.Control.Enabled && cfg.Control.Listen == "" {
		return fmt.Errorf("control.listen is required when control.enabled is true")
	}

	return nil
}
