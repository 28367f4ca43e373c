package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env holds process-level settings read from the environment.
// Command-line flags take precedence over these.
type Env struct {
	ConfigDir  string `env:"ISLET_CONFIG_DIR"`
	ModulesDir string `env:"ISLET_MODULES_DIR"`
	LogLevel   string `env:"ISLET_LOG_LEVEL" envDefault:"info"`
	LogFormat  string `env:"ISLET_LOG_FORMAT" envDefault:"json"`
	Headless   bool   `env:"ISLET_HEADLESS"`
}

// ParseEnv reads Env from the process environment.
func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return e, nil
}
