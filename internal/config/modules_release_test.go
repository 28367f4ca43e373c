//go:build !dev

package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathsForReleaseModulesDir(t *testing.T) {
	assert.Equal(t, filepath.Join("/cfg", ModulesDirName), PathsFor("/cfg").ModulesDir)
}
