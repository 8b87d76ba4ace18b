package llm

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Shape tags the two response layouts understood by the parser.
type Shape int

const (
	// ShapeLocal is the completion server layout: {"content": string | [{"text": ...}]}.
	ShapeLocal Shape = iota
	// ShapeHosted is the chat-completion layout: {"choices": [{"text"} | {"message": {"content"}}]}.
	ShapeHosted
)

func (s Shape) String() string {
	if s == ShapeHosted {
		return "hosted"
	}
	return "local"
}

// Response is a decoded completion body tagged with its shape.
// Exactly one of Local and Hosted is set, matching Shape.
type Response struct {
	Shape  Shape
	Local  *LocalResponse
	Hosted *HostedResponse
}

// LocalResponse is the body returned by the local completion server.
// Content stays raw because the server emits either a string or a list of
// chunks.
type LocalResponse struct {
	Content json.RawMessage `json:"content"`
}

// HostedResponse is the body returned by a chat-completion API.
type HostedResponse struct {
	Choices []HostedChoice `json:"choices"`
}

// HostedChoice covers both legacy completion choices and chat choices.
type HostedChoice struct {
	Text    string `json:"text"`
	Message *struct {
		Content string `json:"content"`
	} `json:"message"`
}

type localChunk struct {
	Text string `json:"text"`
}

// DecodeResponse decodes body into the layout named by shape.
func DecodeResponse(shape Shape, body []byte) (*Response, error) {
	resp := &Response{Shape: shape}
	switch shape {
	case ShapeHosted:
		resp.Hosted = &HostedResponse{}
		if err := json.Unmarshal(body, resp.Hosted); err != nil {
			return nil, MalformedResponse("decode hosted body", err)
		}
	default:
		resp.Local = &LocalResponse{}
		if err := json.Unmarshal(body, resp.Local); err != nil {
			return nil, MalformedResponse("decode local body", err)
		}
	}
	return resp, nil
}

// ParseText extracts plain text from a decoded response. Empty text is not
// an error here; callers decide whether empty output is acceptable.
func ParseText(resp *Response) (string, error) {
	if resp == nil {
		return "", MalformedResponse("nil response", nil)
	}
	switch resp.Shape {
	case ShapeHosted:
		return parseHosted(resp.Hosted)
	default:
		return parseLocal(resp.Local)
	}
}

func parseLocal(r *LocalResponse) (string, error) {
	if r == nil {
		return "", MalformedResponse("missing content", nil)
	}
	raw := bytes.TrimSpace(r.Content)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", MalformedResponse("missing content", nil)
	}

	switch raw[0] {
	case '[':
		var chunks []localChunk
		if err := json.Unmarshal(raw, &chunks); err != nil {
			return "", MalformedResponse("decode content chunks", err)
		}
		var b strings.Builder
		for _, c := range chunks {
			b.WriteString(c.Text)
		}
		return b.String(), nil
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", MalformedResponse("decode content string", err)
		}
		return s, nil
	case '{':
		return "", MalformedResponse("content is an object", nil)
	default:
		// Numbers and booleans are coerced to their literal text.
		return string(raw), nil
	}
}

func parseHosted(r *HostedResponse) (string, error) {
	if r == nil || len(r.Choices) == 0 {
		return "", MalformedResponse("missing choices", nil)
	}
	choice := r.Choices[0]
	if choice.Text != "" {
		return choice.Text, nil
	}
	if choice.Message != nil {
		return choice.Message.Content, nil
	}
	return "", nil
}
