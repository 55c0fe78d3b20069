package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// ErrUpstream indicates the model call failed: network, auth, rate limit, or
// a malformed response. The adapter never retries; a failed call fails the
// whole pipeline run.
var ErrUpstream = errors.New("model request failed")

// Request is one multimodal completion: a fixed system instruction, user text
// with zero or more inline JPEG images, and per-stage model parameters.
type Request struct {
	System      string
	Text        string
	Images      [][]byte // JPEG-encoded, embedded as base64 data URLs
	Model       openai.ChatModel
	MaxTokens   int64
	Temperature float64
}

// Completer executes one multimodal completion and returns its text.
// The pipeline depends on this interface so tests can substitute the model.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Client is the OpenAI-backed Completer
type Client struct {
	client openai.Client
}

// NewClient creates a client authenticating with the given API key
func NewClient(apiKey string) *Client {
	return &Client{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
	}
}

// Complete sends one chat completion and returns the response text
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, 1+len(req.Images))
	parts = append(parts, openai.TextContentPart(req.Text))

	for _, img := range req.Images {
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(img),
		}))
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(parts),
		},
		MaxTokens:   openai.Int(req.MaxTokens),
		Temperature: openai.Float(req.Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: response contained no choices", ErrUpstream)
	}

	return resp.Choices[0].Message.Content, nil
}
