package rewrite

import (
	"bytes"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/neptotech/betteradvancedpaste/ai/configloader"
)

// PromptFile is the optional override file looked up in the config directory.
const PromptFile = "prompts.yaml"

// PromptConfig holds the prompts and parameters of the two-step exchange.
type PromptConfig struct {
	Name           string `yaml:"name"`
	Version        string `yaml:"version"`
	SystemPrompt   string `yaml:"system_prompt"`
	UserTemplate   string `yaml:"user_template"`
	FilenamePrompt string `yaml:"filename_prompt"`
	Params         struct {
		Temperature       float64 `yaml:"temperature"`
		FilenameMaxTokens int     `yaml:"filename_max_tokens"`
	} `yaml:"params"`
}

// UserPromptData holds data for the user turn template.
type UserPromptData struct {
	Clipboard   string
	Instruction string
}

// LoadPromptConfig reads PromptFile from dir. Fields the file leaves empty
// keep their defaults; an unreadable file yields the defaults.
func LoadPromptConfig(dir string) *PromptConfig {
	cfg := DefaultPromptConfig()
	if dir == "" {
		return cfg
	}

	var override PromptConfig
	if err := configloader.NewLoader(dir).Load(PromptFile, &override); err != nil {
		slog.Debug("prompt override not loaded, using defaults", "dir", dir, "error", err)
		return cfg
	}

	if override.Name != "" {
		cfg.Name = override.Name
	}
	if override.Version != "" {
		cfg.Version = override.Version
	}
	if override.SystemPrompt != "" {
		cfg.SystemPrompt = override.SystemPrompt
	}
	if override.UserTemplate != "" {
		cfg.UserTemplate = override.UserTemplate
	}
	if override.FilenamePrompt != "" {
		cfg.FilenamePrompt = override.FilenamePrompt
	}
	if override.Params.Temperature > 0 {
		cfg.Params.Temperature = override.Params.Temperature
	}
	if override.Params.FilenameMaxTokens > 0 {
		cfg.Params.FilenameMaxTokens = override.Params.FilenameMaxTokens
	}
	return cfg
}

// DefaultPromptConfig returns the built-in prompts.
func DefaultPromptConfig() *PromptConfig {
	cfg := &PromptConfig{
		Name:    "rewrite",
		Version: "default",
		SystemPrompt: `You are a clipboard assistant. You convert the given text according to the user's instruction.
Print only the transformed text itself: no thoughts, no commentary, no explanation, no title, no surrounding quotes or code fences.
Any extra text corrupts the output file.`,
		UserTemplate: `Edit the following text according to the instruction.

Text:
{{.Clipboard}}

Instruction:
{{if .Instruction}}{{.Instruction}}{{else}}Return the text unchanged.{{end}}`,
		FilenamePrompt: `Suggest a filename for the output above, including its extension.
Derive both the name and the extension strictly from the target format of the transformation (for example .py for Python code, .md for Markdown, .csv for tabular data, .txt for plain prose).
A missing or wrong extension makes the file unusable.
Reply with the filename only, on a single line, with no extra text.`,
	}
	cfg.Params.Temperature = 0
	cfg.Params.FilenameMaxTokens = 50
	return cfg
}

// BuildUserPrompt renders the user turn of the content exchange.
func (c *PromptConfig) BuildUserPrompt(data *UserPromptData) (string, error) {
	tmpl, err := template.New("user").Parse(c.UserTemplate)
	if err != nil {
		return "", fmt.Errorf("parse user template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute user template: %w", err)
	}

	return buf.String(), nil
}
