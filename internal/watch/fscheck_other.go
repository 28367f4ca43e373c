//go:build !darwin && !linux

package watch

import "errors"

// Without a detector the check is skipped; see checkLocalWithDetector.
func detectFilesystemType(string) (string, error) {
	return "", errors.ErrUnsupported
}
