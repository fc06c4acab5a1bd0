// Package anthropic provides a direct Anthropic API backend for the
// relay, for running the demo without AWS credentials.
package anthropic

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"rivachat/config"
	"rivachat/internal/core"
	"rivachat/internal/httpclient"
	"rivachat/internal/upstream"
)

const apiVersion = "2023-06-01"

func init() {
	// Self-register with the factory
	upstream.Register(config.BackendAnthropic, func(_ context.Context, cfg *config.Config) (core.Upstream, error) {
		return New(cfg.Anthropic), nil
	})
}

// Upstream implements core.Upstream against the Anthropic Messages API.
type Upstream struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
}

// New creates an Anthropic backend from configuration.
func New(cfg config.AnthropicConfig) *Upstream {
	return &Upstream{
		httpClient: httpclient.NewDefaultHTTPClient(),
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
	}
}

// NewWithHTTPClient creates an Anthropic backend with a custom HTTP
// client, used by tests to point at a local server.
func NewWithHTTPClient(cfg config.AnthropicConfig, client *http.Client) *Upstream {
	u := New(cfg)
	u.httpClient = client
	return u
}

// Name identifies the backend in logs and metrics.
func (u *Upstream) Name() string { return "anthropic" }

// messagesRequest is the Anthropic Messages API request format.
type messagesRequest struct {
	Model       string       `json:"model"`
	Messages    []apiMessage `json:"messages"`
	MaxTokens   int          `json:"max_tokens"`
	Temperature *float64     `json:"temperature,omitempty"`
	System      string       `json:"system,omitempty"`
	Stream      bool         `json:"stream"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// streamEvent is one SSE event from the Messages API.
type streamEvent struct {
	Type  string       `json:"type"`
	Delta *streamDelta `json:"delta,omitempty"`
	Error *streamError `json:"error,omitempty"`
}

type streamDelta struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type streamError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// convertRequest maps a validated, defaulted ChatRequest to the API
// format, extracting system messages to the top-level system field.
func (u *Upstream) convertRequest(req *core.ChatRequest) *messagesRequest {
	out := &messagesRequest{
		Model:       u.model,
		Messages:    make([]apiMessage, 0, len(req.Messages)),
		MaxTokens:   *req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      true,
	}
	for _, msg := range req.Messages {
		if msg.Role == core.RoleSystem {
			out.System = msg.Content
			continue
		}
		out.Messages = append(out.Messages, apiMessage{Role: msg.Role, Content: msg.Content})
	}
	return out
}

// StreamChat opens one streaming session against the Messages API.
func (u *Upstream) StreamChat(ctx context.Context, req *core.ChatRequest) (core.TokenStream, error) {
	body, err := json.Marshal(u.convertRequest(req))
	if err != nil {
		return nil, core.NewUpstreamError("failed to encode request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, core.NewUpstreamError("failed to create request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", u.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := u.httpClient.Do(httpReq)
	if err != nil {
		return nil, core.NewUpstreamError("failed to reach upstream", err)
	}

	if resp.StatusCode != http.StatusOK {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			respBody = []byte("failed to read error response")
		}
		_ = resp.Body.Close() //nolint:errcheck
		return nil, core.ClassifyUpstreamStatus(resp.StatusCode, respBody, nil)
	}

	return &stream{reader: bufio.NewReader(resp.Body), body: resp.Body}, nil
}

// stream decodes the SSE response body into text deltas.
type stream struct {
	reader *bufio.Reader
	body   io.ReadCloser
}

// Recv returns the next text delta. Events without text are skipped;
// message_stop and transport EOF map to io.EOF.
func (s *stream) Recv() (string, error) {
	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				return "", io.EOF
			}
			return "", core.NewUpstreamError("upstream stream read failed", err)
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 || bytes.HasPrefix(line, []byte("event:")) {
			continue
		}
		if !bytes.HasPrefix(line, []byte("data:")) {
			continue
		}

		data := bytes.TrimSpace(bytes.TrimPrefix(line, []byte("data:")))
		var event streamEvent
		if err := json.Unmarshal(data, &event); err != nil {
			continue
		}

		switch event.Type {
		case "content_block_delta":
			if event.Delta != nil && event.Delta.Type == "text_delta" && event.Delta.Text != "" {
				return event.Delta.Text, nil
			}
		case "message_stop":
			return "", io.EOF
		case "error":
			message := "unknown streaming error"
			if event.Error != nil {
				message = event.Error.Message
			}
			return "", core.NewUpstreamError("upstream reported a streaming error: "+message, nil)
		}
	}
}

// Close releases the upstream session by closing the response body.
func (s *stream) Close() error {
	return s.body.Close()
}
