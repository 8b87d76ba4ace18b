package llm

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single completion call.
const DefaultTimeout = 120 * time.Second

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 8 << 20

// Request is one completion call over an exchange.
type Request struct {
	Exchange *Exchange
	// MaxTokens bounds generation; zero or negative means unbounded.
	MaxTokens   int
	Temperature float32
	Stop        []string
}

// Backend executes completion requests against one provider.
type Backend interface {
	// Name identifies the backend in logs and metrics.
	Name() string
	// Complete sends req and returns the parsed, non-empty text.
	Complete(ctx context.Context, req Request) (string, error)
}

// NewHTTPClient returns the client shared by both backends. The timeout is
// applied to the whole exchange; expiry surfaces as a network failure.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// postJSON sends payload and returns the body of a 2xx response. Non-2xx
// responses are returned with their body so the caller can extract a message.
func postJSON(ctx context.Context, client *http.Client, url string, payload []byte, header http.Header) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, NetworkFailure(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, NetworkFailure(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, NetworkFailure(err)
	}
	return resp.StatusCode, body, nil
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

// parseNonEmpty decodes body as shape and rejects blank text.
func parseNonEmpty(shape Shape, body []byte) (string, error) {
	resp, err := DecodeResponse(shape, body)
	if err != nil {
		return "", err
	}
	text, err := ParseText(resp)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", EmptyResult()
	}
	return text, nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
