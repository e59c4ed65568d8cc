package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MarshalInitFile renders the configuration as an initialization file.
func (c Configuration) MarshalInitFile() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize configuration: %w", err)
	}
	return data, nil
}

// WriteInitFile writes the configuration to path so that LoadConfiguration
// can read it back.
func WriteInitFile(path string, c Configuration) error {
	data, err := c.MarshalInitFile()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write init file %s: %w", path, err)
	}
	return nil
}
