package watch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNetworkFilesystem is returned by CheckLocal for remote mounts, where
// change notifications are not delivered reliably.
var ErrNetworkFilesystem = errors.New("directory is on a network filesystem")

var networkFilesystems = map[string]struct{}{
	"9p":     {},
	"afpfs":  {},
	"afs":    {},
	"ceph":   {},
	"cifs":   {},
	"coda":   {},
	"nfs":    {},
	"smbfs":  {},
	"smb2":   {},
	"webdav": {},
}

// CheckLocal reports whether dir (or its nearest existing parent) is on a
// local filesystem. Platforms without a detector always pass.
func CheckLocal(dir string) error {
	return checkLocalWithDetector(dir, detectFilesystemType)
}

func checkLocalWithDetector(dir string, detector func(string) (string, error)) error {
	if dir == "" {
		return fmt.Errorf("watch path is empty")
	}

	inspectPath, err := nearestExistingPath(dir)
	if err != nil {
		return fmt.Errorf("resolve watch path %q: %w", dir, err)
	}

	fsType, err := detector(inspectPath)
	if errors.Is(err, errors.ErrUnsupported) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("detect filesystem for %q: %w", inspectPath, err)
	}

	if isNetworkFilesystem(fsType) {
		return fmt.Errorf("%w: %q is on %q; edits made from other machines will not trigger a reload", ErrNetworkFilesystem, dir, fsType)
	}
	return nil
}

// nearestExistingPath walks up from path until it finds something that
// exists; the config directory may not have been created yet.
func nearestExistingPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("absolute path: %w", err)
	}
	for p := abs; ; p = filepath.Dir(p) {
		_, err := os.Stat(p)
		switch {
		case err == nil:
			return p, nil
		case !errors.Is(err, os.ErrNotExist):
			return "", fmt.Errorf("stat %q: %w", p, err)
		case filepath.Dir(p) == p:
			return "", fmt.Errorf("no existing parent for %q", abs)
		}
	}
}

func isNetworkFilesystem(fsType string) bool {
	normalized := strings.TrimSpace(strings.ToLower(fsType))
	_, found := networkFilesystems[normalized]
	return found
}
