// Package output turns a rewrite outcome into a file on disk.
package output

import "strings"

// Fallback name parts used when the suggested filename is unusable.
const (
	DefaultStem      = "advanced_paste_output"
	DefaultExtension = ".txt"
	DefaultFilename  = DefaultStem + DefaultExtension
)

var (
	lineBreaks = strings.NewReplacer("\r", "", "\n", "")
	reserved   = strings.NewReplacer(
		"<", "_", ">", "_", ":", "_", `"`, "_",
		"/", "_", `\`, "_", "|", "_", "?", "_", "*", "_",
	)
)

// Sanitize makes a model-suggested filename safe to create inside the
// output directory. Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(name string) string {
	name = lineBreaks.Replace(name)
	name = strings.TrimSpace(name)
	name = reserved.Replace(name)

	// "." and ".." name directories, not files.
	if name == "" || name == "." || name == ".." {
		name = DefaultStem
	}
	if !strings.Contains(name, ".") {
		name += DefaultExtension
	}
	return name
}
