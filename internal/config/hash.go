package config

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/zeebo/blake3"
)

// Fingerprint returns the hex BLAKE3 hash of data.
func Fingerprint(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// ComputeBlake3Hash computes the BLAKE3 hash of a file.
func ComputeBlake3Hash(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return Fingerprint(data), nil
}

// Unchanged reports whether the file at path still hashes to cfg's fingerprint.
// A read error counts as changed.
func Unchanged(cfg *Config, path string) bool {
	if cfg == nil || cfg.Fingerprint == "" {
		return false
	}
	sum, err := ComputeBlake3Hash(path)
	if err != nil {
		return false
	}
	return sum == cfg.Fingerprint
}
