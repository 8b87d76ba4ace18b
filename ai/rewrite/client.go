package rewrite

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/neptotech/betteradvancedpaste/ai/core/llm"
	"github.com/neptotech/betteradvancedpaste/ai/output"
)

// Outcome is the result of a rewrite. SuggestedFilename is best-effort and
// holds output.DefaultFilename when naming failed; FilenameErr records why.
type Outcome struct {
	Content           string
	SuggestedFilename string
	FilenameErr       error
}

// Client runs the two-step exchange: rewrite the clipboard text, then ask for
// a filename with the first exchange as context. It keeps no per-call state
// and is safe for concurrent use.
type Client struct {
	prompts *PromptConfig
}

// NewClient creates a client. A nil config uses the built-in prompts.
func NewClient(prompts *PromptConfig) *Client {
	if prompts == nil {
		prompts = DefaultPromptConfig()
	}
	return &Client{prompts: prompts}
}

// Rewrite transforms clipboard according to instruction. Only the content
// call can fail the rewrite; a failed filename call falls back to
// output.DefaultFilename.
func (c *Client) Rewrite(ctx context.Context, backend llm.Backend, instruction, clipboard string) (*Outcome, error) {
	user, err := c.prompts.BuildUserPrompt(&UserPromptData{
		Clipboard:   clipboard,
		Instruction: strings.TrimSpace(instruction),
	})
	if err != nil {
		return nil, err
	}
	exchange := llm.NewExchange(c.prompts.SystemPrompt, user)

	start := time.Now()
	content, err := backend.Complete(ctx, llm.Request{
		Exchange:    exchange,
		Temperature: float32(c.prompts.Params.Temperature),
	})
	if err != nil {
		slog.Error("rewrite_primary_failed",
			"backend", backend.Name(),
			"error", err,
			"latency_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("rewrite with %s: %w", backend.Name(), err)
	}

	named := c.suggestFilename(ctx, backend, exchange, content)
	if !named.OK() {
		slog.Warn("filename_fallback",
			"backend", backend.Name(),
			"default", output.DefaultFilename,
			"error", named.Err)
	}

	slog.Debug("rewrite_success",
		"backend", backend.Name(),
		"chars", len(content),
		"latency_ms", time.Since(start).Milliseconds())

	return &Outcome{
		Content:           content,
		SuggestedFilename: named.OrElse(output.DefaultFilename),
		FilenameErr:       named.Err,
	}, nil
}

// suggestFilename extends the content exchange with the produced text and a
// naming request.
func (c *Client) suggestFilename(ctx context.Context, backend llm.Backend, exchange *llm.Exchange, content string) llm.Result {
	naming := exchange.Clone().
		Append(llm.RoleAssistant, content).
		Append(llm.RoleUser, c.prompts.FilenamePrompt)

	r := llm.ResultOf(backend.Complete(ctx, llm.Request{
		Exchange:    naming,
		MaxTokens:   c.prompts.Params.FilenameMaxTokens,
		Temperature: 0,
	}))
	if r.OK() {
		r.Text = firstLine(r.Text)
	}
	return r
}

// firstLine returns the first non-blank line; models sometimes follow the
// name with an explanation.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return s
}
