package ai

import (
	"time"

	"github.com/neptotech/betteradvancedpaste/ai/core/llm"
	"github.com/neptotech/betteradvancedpaste/internal/profile"
)

// BackendConfig selects and parameterises the completion backend.
type BackendConfig struct {
	UseHosted      bool
	HostedAPIKey   string // static fallback when the secret store has nothing
	HostedModel    string
	HostedEndpoint string
	LocalURL       string
	Timeout        time.Duration
}

// NewBackendConfigFromProfile creates the backend config from profile.
func NewBackendConfigFromProfile(p *profile.Profile) BackendConfig {
	cfg := BackendConfig{
		UseHosted:      p.UseOpenAI,
		HostedAPIKey:   p.APIKey,
		HostedModel:    p.Model,
		HostedEndpoint: p.Endpoint,
		LocalURL:       p.LocalURL,
		Timeout:        time.Duration(p.TimeoutSeconds) * time.Second,
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = llm.DefaultTimeout
	}
	return cfg
}
