package output

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/neptotech/betteradvancedpaste/ai/core/llm"
)

// File is the artifact written for a successful rewrite.
type File struct {
	Path     string `json:"file"`
	Filename string `json:"filename"`
}

// Materialize writes content to dir under the sanitized form of
// suggestedFilename, creating dir if needed. An existing file with the same
// name is replaced. Failures are llm.KindIO.
func Materialize(content, suggestedFilename, dir string) (*File, error) {
	filename := Sanitize(suggestedFilename)
	path := filepath.Join(dir, filename)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, llm.IOFailure("create output directory", err)
	}

	// Write to a sibling temp file and rename so a concurrent writer of the
	// same name never observes a partial file.
	tmp, err := os.CreateTemp(dir, ".advancedpaste-*.tmp")
	if err != nil {
		return nil, llm.IOFailure("create temp file", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		cleanup()
		return nil, llm.IOFailure("write output file", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return nil, llm.IOFailure("close output file", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return nil, llm.IOFailure("chmod output file", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return nil, llm.IOFailure("rename output file", err)
	}

	slog.Info("output_materialized", "path", path, "bytes", len(content))
	return &File{Path: path, Filename: filename}, nil
}
