package profile

import (
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// FromConfigFile applies the JSON config document at path. A missing file
// leaves the profile untouched.
func (p *Profile) FromConfigFile(path string) error {
	if path == "" {
		return nil
	}
	p.ConfigPath = path

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Info("config file not found, using defaults", "path", path)
		return nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "read config %s", path)
	}
	p.apply(v)
	return nil
}

func (p *Profile) apply(v *viper.Viper) {
	if v.IsSet("ai.use_openai") {
		if b, ok := ParseBool(v.GetString("ai.use_openai")); ok {
			p.UseOpenAI = b
		} else {
			slog.Warn("ignoring unrecognised boolean", "key", "ai.use_openai", "value", v.GetString("ai.use_openai"))
		}
	}
	setString(v, "ai.local_url", &p.LocalURL)
	setString(v, "ai.api_key", &p.APIKey)
	setString(v, "ai.model", &p.Model)
	setString(v, "ai.endpoint", &p.Endpoint)
	if v.IsSet("ai.timeout_seconds") {
		p.TimeoutSeconds = v.GetInt("ai.timeout_seconds")
	}
	if v.IsSet("ai.temperature") {
		p.Temperature = float32(v.GetFloat64("ai.temperature"))
	}
	if v.IsSet("save_history") {
		if b, ok := ParseBool(v.GetString("save_history")); ok {
			p.SaveHistory = b
		}
	}
	setString(v, "driver", &p.Driver)
	setString(v, "dsn", &p.DSN)
}

func setString(v *viper.Viper, key string, dst *string) {
	if s := v.GetString(key); s != "" {
		*dst = s
	}
}
