// Package configloader reads optional YAML override files from the config
// directory, falling back to the directory of the executable.
package configloader

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Loader reads YAML files relative to a base directory.
type Loader struct {
	baseDir string
}

// NewLoader creates a new configuration loader.
func NewLoader(baseDir string) *Loader {
	return &Loader{
		baseDir: baseDir,
	}
}

// Load reads subPath and unmarshals it into target.
func (l *Loader) Load(subPath string, target any) error {
	data, err := l.ReadFileWithFallback(subPath)
	if err != nil {
		return fmt.Errorf("read file %s: %w", subPath, err)
	}

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("unmarshal YAML %s: %w", subPath, err)
	}

	return nil
}

// ReadFileWithFallback tries path relative to baseDir, then relative to the
// executable directory for packaged builds.
func (l *Loader) ReadFileWithFallback(path string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.baseDir, path))
	if err == nil {
		return data, nil
	}

	execPath, execErr := os.Executable()
	if execErr != nil {
		return nil, err
	}
	fallback := filepath.Join(filepath.Dir(execPath), path)
	if data, fbErr := os.ReadFile(fallback); fbErr == nil {
		return data, nil
	}
	return nil, err
}
