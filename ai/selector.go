package ai

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/neptotech/betteradvancedpaste/ai/core/llm"
	"github.com/neptotech/betteradvancedpaste/ai/secret"
)

// Selector picks the completion backend for one rewrite. Nothing is cached
// between calls so a key added to or removed from the store takes effect on
// the next rewrite.
type Selector struct {
	config  BackendConfig
	secrets secret.Store
	client  *http.Client
	logger  *slog.Logger
}

// NewSelector creates a selector. secrets may be nil, in which case only the
// static key from config is considered.
func NewSelector(cfg BackendConfig, secrets secret.Store) *Selector {
	return &Selector{
		config:  cfg,
		secrets: secrets,
		client:  llm.NewHTTPClient(cfg.Timeout),
		logger:  slog.Default(),
	}
}

// WithLogger returns a copy of the selector that logs to l.
func (s *Selector) WithLogger(l *slog.Logger) *Selector {
	c := *s
	c.logger = l
	return &c
}

// Select returns the hosted backend when it is enabled and a key resolves,
// and the local backend otherwise. It never fails.
func (s *Selector) Select() llm.Backend {
	if !s.config.UseHosted {
		return s.local()
	}

	key, storeErr := s.resolveSecret()
	if key == "" {
		attrs := []any{"local_url", s.config.LocalURL}
		if storeErr != nil {
			attrs = append(attrs, "store_error", storeErr)
		}
		s.logger.Warn("hosted backend requested but no API key found, using local backend", attrs...)
		return s.local()
	}

	return llm.NewHostedBackend(s.config.HostedEndpoint, key, s.config.HostedModel, s.client)
}

// resolveSecret checks the secret store first and falls back to the static
// key. A store error is treated as "no secret".
func (s *Selector) resolveSecret() (string, error) {
	var storeErr error
	if s.secrets != nil {
		key, err := s.secrets.Get()
		if err == nil && strings.TrimSpace(key) != "" {
			return strings.TrimSpace(key), nil
		}
		storeErr = err
	}
	return strings.TrimSpace(s.config.HostedAPIKey), storeErr
}

func (s *Selector) local() llm.Backend {
	return llm.NewLocalBackend(s.config.LocalURL, s.client)
}
