//go:build !dev

package config

import "path/filepath"

func defaultModulesDir(root string) string {
	return filepath.Join(root, ModulesDirName)
}
