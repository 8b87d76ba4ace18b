package profile

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Defaults applied before the config document and the environment.
const (
	DefaultLocalURL       = "http://127.0.0.1:8080/completion"
	DefaultHostedEndpoint = "https://api.openai.com/v1/chat/completions"
	DefaultHostedModel    = "gpt-4o-mini"
	DefaultTimeoutSeconds = 120
	DefaultConfigFile     = "conf.json"
)

// Profile is the configuration the process starts with. It is built once
// and treated as read-only afterwards.
type Profile struct {
	// AI backend configuration (the "ai" object of the config document).
	UseOpenAI      bool
	LocalURL       string
	APIKey         string
	Model          string
	Endpoint       string
	TimeoutSeconds int
	Temperature    float32

	// Prompt store.
	SaveHistory bool
	Driver      string // file, sqlite
	DSN         string

	// Process.
	ConfigPath string
	OutputDir  string
	Mode       string
	Addr       string
	Port       int
	Version    string
	Debug      bool
}

// Default returns a profile populated with built-in defaults.
func Default() *Profile {
	return &Profile{
		LocalURL:       DefaultLocalURL,
		Endpoint:       DefaultHostedEndpoint,
		Model:          DefaultHostedModel,
		TimeoutSeconds: DefaultTimeoutSeconds,
		Driver:         "file",
		Mode:           "prod",
		Addr:           "127.0.0.1",
		Port:           28090,
	}
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvOrDefaultBool parses 1/true/yes/on and 0/false/no/off. Any other
// value keeps the default.
func getEnvOrDefaultBool(key string, defaultValue bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	if b, ok := ParseBool(value); ok {
		return b
	}
	slog.Warn("ignoring unrecognised boolean", "key", key, "value", value)
	return defaultValue
}

// ParseBool accepts the spellings used in config files and environment
// variables. The second result is false when s is not recognised.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}

// FromEnv overrides the AI settings from environment variables.
func (p *Profile) FromEnv() {
	p.APIKey = getEnvOrDefault("BAP_API_KEY", p.APIKey)
	p.Model = getEnvOrDefault("BAP_MODEL", p.Model)
	p.Endpoint = getEnvOrDefault("BAP_ENDPOINT", p.Endpoint)
	p.LocalURL = getEnvOrDefault("BAP_LOCAL_URL", p.LocalURL)
	p.UseOpenAI = getEnvOrDefaultBool("BAP_USE_OPENAI", p.UseOpenAI)
	p.SaveHistory = getEnvOrDefaultBool("BAP_SAVE_HISTORY", p.SaveHistory)
	p.TimeoutSeconds = getEnvOrDefaultInt("BAP_TIMEOUT_SECONDS", p.TimeoutSeconds)
}

func checkDir(dir string) (string, error) {
	if !filepath.IsAbs(dir) {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return "", err
		}
		dir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dir = strings.TrimRight(dir, "\\/")
	if dir == "" {
		dir = string(filepath.Separator)
	}
	return dir, nil
}

// Validate normalises the profile and fills derived values.
func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "prod"
	}

	p.LocalURL = strings.TrimSpace(p.LocalURL)
	if p.LocalURL == "" {
		p.LocalURL = DefaultLocalURL
	}
	p.Endpoint = strings.TrimSpace(p.Endpoint)
	if p.Endpoint == "" {
		p.Endpoint = DefaultHostedEndpoint
	}
	if strings.TrimSpace(p.Model) == "" {
		p.Model = DefaultHostedModel
	}
	if p.TimeoutSeconds <= 0 {
		p.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if p.Temperature < 0 {
		p.Temperature = 0
	}

	if p.OutputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return errors.Wrap(err, "resolve working directory")
		}
		p.OutputDir = wd
	}
	outputDir, err := checkDir(p.OutputDir)
	if err != nil {
		return errors.Wrapf(err, "unable to resolve output folder %s", p.OutputDir)
	}
	p.OutputDir = outputDir

	switch p.Driver {
	case "", "file":
		p.Driver = "file"
	case "sqlite":
		if p.DSN == "" {
			p.DSN = filepath.Join(p.ConfigDir(), "advancedpaste.db")
		}
	default:
		return errors.Errorf("unsupported prompt store driver %q", p.Driver)
	}

	return nil
}

// ConfigDir is the directory holding the config document.
func (p *Profile) ConfigDir() string {
	if p.ConfigPath == "" {
		return "."
	}
	return filepath.Dir(p.ConfigPath)
}
