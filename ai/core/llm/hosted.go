package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// DefaultHostedEndpoint is the chat-completion URL used when none is configured.
const DefaultHostedEndpoint = "https://api.openai.com/v1/chat/completions"

// HostedBackend talks to an OpenAI-compatible chat-completion endpoint.
type HostedBackend struct {
	Endpoint string
	APIKey   string
	Model    string
	Client   *http.Client
}

// hostedRequest mirrors openai.ChatCompletionRequest but keeps temperature
// on the wire when it is zero.
type hostedRequest struct {
	Model       string                         `json:"model"`
	Messages    []openai.ChatCompletionMessage `json:"messages"`
	Temperature float32                        `json:"temperature"`
	MaxTokens   int                            `json:"max_tokens,omitempty"`
	Stop        []string                       `json:"stop,omitempty"`
}

// NewHostedBackend returns a backend for endpoint authenticated with apiKey.
func NewHostedBackend(endpoint, apiKey, model string, client *http.Client) *HostedBackend {
	if endpoint == "" {
		endpoint = DefaultHostedEndpoint
	}
	if client == nil {
		client = NewHTTPClient(DefaultTimeout)
	}
	return &HostedBackend{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Model:    model,
		Client:   client,
	}
}

func (h *HostedBackend) Name() string {
	return fmt.Sprintf("hosted (%s)", h.Model)
}

func (h *HostedBackend) Complete(ctx context.Context, req Request) (string, error) {
	if req.Exchange == nil {
		return "", fmt.Errorf("hosted: exchange is required")
	}

	payload := hostedRequest{
		Model:       h.Model,
		Messages:    convertTurns(req.Exchange.Turns),
		Temperature: req.Temperature,
		Stop:        req.Stop,
	}
	if req.MaxTokens > 0 {
		payload.MaxTokens = req.MaxTokens
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("hosted: marshal request: %w", err)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+h.APIKey)

	start := time.Now()
	status, respBody, err := postJSON(ctx, h.Client, h.Endpoint, body, header)
	if err != nil {
		slog.Debug("hosted_completion_failed", "model", h.Model, "error", err,
			"latency_ms", time.Since(start).Milliseconds())
		return "", err
	}
	if !isSuccess(status) {
		return "", HTTPStatusFailure(status, hostedErrorMessage(respBody))
	}

	text, err := parseNonEmpty(ShapeHosted, respBody)
	if err != nil {
		return "", err
	}

	slog.Debug("hosted_completion_success",
		"model", h.Model,
		"chars", len(text),
		"latency_ms", time.Since(start).Milliseconds())
	return text, nil
}

func convertTurns(turns []Turn) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, len(turns))
	for i, t := range turns {
		role := openai.ChatMessageRoleUser
		switch t.Role {
		case RoleSystem:
			role = openai.ChatMessageRoleSystem
		case RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		msgs[i] = openai.ChatCompletionMessage{Role: role, Content: t.Content}
	}
	return msgs
}

// hostedErrorMessage extracts the provider's error message, falling back to
// the raw body.
func hostedErrorMessage(body []byte) string {
	var errResp openai.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}
	return snippet(body)
}
