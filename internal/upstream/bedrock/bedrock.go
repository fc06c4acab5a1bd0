// Package bedrock provides the AWS Bedrock backend for the relay,
// streaming Anthropic Claude output via InvokeModelWithResponseStream.
package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"
	"github.com/tidwall/gjson"

	"rivachat/config"
	"rivachat/internal/core"
	"rivachat/internal/upstream"
)

// anthropicVersion is the Bedrock-side Anthropic API version marker.
const anthropicVersion = "bedrock-2023-05-31"

func init() {
	// Self-register with the factory
	upstream.Register(config.BackendBedrock, func(ctx context.Context, cfg *config.Config) (core.Upstream, error) {
		return New(ctx, cfg.Bedrock)
	})
}

// invokeAPI is the slice of the Bedrock runtime client the backend
// uses; narrowed so tests can substitute a fake.
type invokeAPI interface {
	InvokeModelWithResponseStream(ctx context.Context, params *bedrockruntime.InvokeModelWithResponseStreamInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelWithResponseStreamOutput, error)
}

// Upstream implements core.Upstream against AWS Bedrock.
type Upstream struct {
	client  invokeAPI
	modelID string
}

// New creates a Bedrock backend. Credentials resolve through the
// standard AWS chain (env, shared config, instance role); region and
// an optional profile come from configuration.
func New(ctx context.Context, cfg config.BedrockConfig) (*Upstream, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, core.NewUpstreamAuthError("failed to resolve AWS credentials", err)
	}

	return &Upstream{
		client:  bedrockruntime.NewFromConfig(awsCfg),
		modelID: cfg.ModelID,
	}, nil
}

// Name identifies the backend in logs and metrics.
func (u *Upstream) Name() string { return "bedrock" }

// invokeRequest is the Anthropic Messages payload Bedrock expects.
type invokeRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	Temperature      *float64        `json:"temperature,omitempty"`
	System           string          `json:"system,omitempty"`
	Messages         []invokeMessage `json:"messages"`
}

type invokeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// buildPayload converts a validated, defaulted ChatRequest to the
// Bedrock invocation body. System messages move to the top-level
// system field; Claude only accepts user/assistant turns in messages.
func buildPayload(req *core.ChatRequest) ([]byte, error) {
	invoke := invokeRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        *req.MaxTokens,
		Temperature:      req.Temperature,
		Messages:         make([]invokeMessage, 0, len(req.Messages)),
	}

	for _, msg := range req.Messages {
		if msg.Role == core.RoleSystem {
			invoke.System = msg.Content
			continue
		}
		invoke.Messages = append(invoke.Messages, invokeMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	return json.Marshal(invoke)
}

// StreamChat opens one streaming invocation against Bedrock.
func (u *Upstream) StreamChat(ctx context.Context, req *core.ChatRequest) (core.TokenStream, error) {
	body, err := buildPayload(req)
	if err != nil {
		return nil, core.NewUpstreamError("failed to encode model payload", err)
	}

	out, err := u.client.InvokeModelWithResponseStream(ctx, &bedrockruntime.InvokeModelWithResponseStreamInput{
		ModelId:     aws.String(u.modelID),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return nil, classifyInvokeError(err)
	}

	return &stream{events: out.GetStream()}, nil
}

// stream adapts the SDK event stream to core.TokenStream.
type stream struct {
	events    *bedrockruntime.InvokeModelWithResponseStreamEventStream
	closeOnce sync.Once
	closeErr  error
}

// Recv returns the next text delta. Non-text events are skipped;
// message_stop maps to io.EOF. Closing the stream ends a blocked Recv.
func (s *stream) Recv() (string, error) {
	for {
		event, ok := <-s.events.Events()
		if !ok {
			if err := s.events.Err(); err != nil {
				return "", core.NewUpstreamError("upstream stream failed", err)
			}
			return "", io.EOF
		}

		chunk, ok := event.(*brtypes.ResponseStreamMemberChunk)
		if !ok {
			continue
		}

		text, stop, err := decodeChunk(chunk.Value.Bytes)
		if err != nil {
			return "", err
		}
		if stop {
			return "", io.EOF
		}
		if text != "" {
			return text, nil
		}
	}
}

// Close releases the upstream session. Idempotent.
func (s *stream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.events.Close()
	})
	return s.closeErr
}

// decodeChunk extracts a text delta from one Bedrock chunk payload.
// Chunks that carry no text (block boundaries, pings, malformed JSON)
// yield ("", false, nil) and are skipped by the caller.
func decodeChunk(data []byte) (text string, stop bool, err error) {
	switch gjson.GetBytes(data, "type").String() {
	case "content_block_delta":
		if gjson.GetBytes(data, "delta.type").String() == "text_delta" {
			return gjson.GetBytes(data, "delta.text").String(), false, nil
		}
	case "message_stop":
		return "", true, nil
	case "error":
		message := gjson.GetBytes(data, "message").String()
		return "", false, core.NewUpstreamError("upstream reported a streaming error: "+message, nil)
	}
	return "", false, nil
}

// classifyInvokeError maps SDK invocation failures to the relay's
// error taxonomy.
func classifyInvokeError(err error) *core.RelayError {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "UnrecognizedClientException", "InvalidSignatureException", "ExpiredTokenException":
			return core.NewUpstreamAuthError("upstream rejected the relay's AWS credentials", err)
		case "AccessDeniedException":
			return core.NewUpstreamQuotaError("access to the model is denied", err)
		case "ThrottlingException", "TooManyRequestsException", "ServiceQuotaExceededException":
			return core.NewUpstreamQuotaError("upstream is throttling requests", err)
		case "ValidationException":
			return core.NewUpstreamError("upstream rejected the request parameters", err)
		default:
			return core.NewUpstreamError("upstream invocation failed: "+apiErr.ErrorCode(), err)
		}
	}
	return core.NewUpstreamError("upstream invocation failed", err)
}
