//go:build dev

package config

// Development builds load modules straight from the build output.
func defaultModulesDir(string) string {
	return "./build/modules"
}
