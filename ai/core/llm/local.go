package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Sampling defaults for the local completion server.
const (
	DefaultTopK          = 40
	DefaultTopP          = 0.95
	DefaultRepeatPenalty = 1.1
)

// LocalBackend talks to a llama.cpp style /completion endpoint.
type LocalBackend struct {
	URL           string
	TopK          int
	TopP          float32
	RepeatPenalty float32
	Client        *http.Client
}

type localRequest struct {
	Prompt        string   `json:"prompt"`
	NPredict      int      `json:"n_predict"`
	Temperature   float32  `json:"temperature"`
	TopK          int      `json:"top_k"`
	TopP          float32  `json:"top_p"`
	RepeatPenalty float32  `json:"repeat_penalty"`
	Stop          []string `json:"stop"`
}

// NewLocalBackend returns a backend with the default sampling parameters.
func NewLocalBackend(url string, client *http.Client) *LocalBackend {
	if client == nil {
		client = NewHTTPClient(DefaultTimeout)
	}
	return &LocalBackend{
		URL:           url,
		TopK:          DefaultTopK,
		TopP:          DefaultTopP,
		RepeatPenalty: DefaultRepeatPenalty,
		Client:        client,
	}
}

func (l *LocalBackend) Name() string {
	return "local"
}

func (l *LocalBackend) Complete(ctx context.Context, req Request) (string, error) {
	if req.Exchange == nil {
		return "", fmt.Errorf("local: exchange is required")
	}

	nPredict := req.MaxTokens
	if nPredict <= 0 {
		nPredict = -1
	}

	body, err := json.Marshal(localRequest{
		Prompt:        req.Exchange.RenderDelimited(),
		NPredict:      nPredict,
		Temperature:   req.Temperature,
		TopK:          l.TopK,
		TopP:          l.TopP,
		RepeatPenalty: l.RepeatPenalty,
		Stop:          mergeStop(Sentinels(), req.Stop),
	})
	if err != nil {
		return "", fmt.Errorf("local: marshal request: %w", err)
	}

	start := time.Now()
	status, respBody, err := postJSON(ctx, l.Client, l.URL, body, nil)
	if err != nil {
		slog.Debug("local_completion_failed", "url", l.URL, "error", err,
			"latency_ms", time.Since(start).Milliseconds())
		return "", err
	}
	if !isSuccess(status) {
		return "", HTTPStatusFailure(status, snippet(respBody))
	}

	text, err := parseNonEmpty(ShapeLocal, respBody)
	if err != nil {
		return "", err
	}

	slog.Debug("local_completion_success",
		"n_predict", nPredict,
		"chars", len(text),
		"latency_ms", time.Since(start).Milliseconds())
	return text, nil
}

// mergeStop appends extra to base, skipping duplicates.
func mergeStop(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]struct{}, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, s := range list {
			if s == "" {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
