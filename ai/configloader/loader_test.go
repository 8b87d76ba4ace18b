package configloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name   string `yaml:"name"`
	Params struct {
		Limit int `yaml:"limit"`
	} `yaml:"params"`
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sample.yaml"), []byte("name: demo\nparams:\n  limit: 7\n"), 0o644))

	var s sample
	require.NoError(t, NewLoader(dir).Load("sample.yaml", &s))
	assert.Equal(t, "demo", s.Name)
	assert.Equal(t, 7, s.Params.Limit)
}

func TestLoad_Missing(t *testing.T) {
	var s sample
	err := NewLoader(t.TempDir()).Load("absent-config-file.yaml", &s)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("name: [unclosed"), 0o644))

	var s sample
	err := NewLoader(dir).Load("bad.yaml", &s)
	assert.ErrorContains(t, err, "unmarshal YAML")
}
