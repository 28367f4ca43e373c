package watch

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckLocalAllowsLocalFS(t *testing.T) {
	err := checkLocalWithDetector(t.TempDir(), func(string) (string, error) {
		return "apfs", nil
	})
	assert.NoError(t, err)
}

func TestCheckLocalRejectsNetworkFS(t *testing.T) {
	err := checkLocalWithDetector(t.TempDir(), func(string) (string, error) {
		return "smbfs", nil
	})
	require.ErrorIs(t, err, ErrNetworkFilesystem)
	assert.Contains(t, err.Error(), "smbfs")
}

func TestCheckLocalUsesNearestExistingPath(t *testing.T) {
	root := t.TempDir()
	var inspected string
	err := checkLocalWithDetector(filepath.Join(root, "islet", "not-yet"), func(path string) (string, error) {
		inspected = path
		return "ext4", nil
	})
	require.NoError(t, err)
	assert.Equal(t, root, inspected)
}

func TestCheckLocalDetectorErrors(t *testing.T) {
	err := checkLocalWithDetector(t.TempDir(), func(string) (string, error) {
		return "", errors.ErrUnsupported
	})
	assert.NoError(t, err)

	err = checkLocalWithDetector(t.TempDir(), func(string) (string, error) {
		return "", errors.New("statfs failed")
	})
	assert.ErrorContains(t, err, "statfs failed")

	assert.Error(t, checkLocalWithDetector("", nil))
}

func TestIsNetworkFilesystem(t *testing.T) {
	cases := map[string]bool{
		"nfs":    true,
		"SMBFS":  true,
		"9p":     true,
		"apfs":   false,
		"0x6969": false,
	}
	for fs, want := range cases {
		assert.Equal(t, want, isNetworkFilesystem(fs), fs)
	}
}
