package modkit

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// DecodeConfig strictly decodes a config blob handed to Module.UpdateConfig.
// Unknown keys are rejected so typos surface as errors. An empty blob leaves
// dst untouched.
func DecodeConfig(blob string, dst any) error {
	dec := yaml.NewDecoder(bytes.NewBufferString(blob))
	dec.KnownFields(true)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode module config: %w", err)
	}
	return nil
}
