package style

import (
	"fmt"
	"sync"
)

// Layer orders installed styles. Higher layers override lower ones.
type Layer int

const (
	LayerFallback Layer = iota
	LayerUser
)

func (l Layer) String() string {
	switch l {
	case LayerFallback:
		return "fallback"
	case LayerUser:
		return "user"
	default:
		return fmt.Sprintf("layer(%d)", int(l))
	}
}

// Installer applies StyleText to the toolkit.
type Installer interface {
	InstallStyle(layer Layer, text StyleText)
}

// Sheet compiles the user stylesheet and installs it. A failed compile
// leaves the previously installed text in place.
type Sheet struct {
	compiler  Compiler
	path      string
	installer Installer

	mu        sync.Mutex
	installed StyleText
	loaded    bool
}

// NewSheet binds a compiler and installer to the stylesheet at path.
func NewSheet(compiler Compiler, path string, installer Installer) *Sheet {
	return &Sheet{compiler: compiler, path: path, installer: installer}
}

// Reload recompiles and installs the stylesheet.
func (s *Sheet) Reload() error {
	text, err := s.compiler.Compile(s.path)
	if err != nil {
		return fmt.Errorf("stylesheet not installed, keeping previous: %w", err)
	}
	s.installer.InstallStyle(LayerUser, text)

	s.mu.Lock()
	s.installed = text
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// Installed returns the last successfully installed text.
func (s *Sheet) Installed() (StyleText, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.installed, s.loaded
}

// Path returns the stylesheet source path.
func (s *Sheet) Path() string {
	return s.path
}
