package anthropic

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	ai "github.com/spetersoncode/strand"
)

// DefaultModel is used when neither the client nor the request sets one.
const DefaultModel = "claude-sonnet-4-20250514"

// Client wraps the Anthropic SDK to implement ai.CompletionProvider.
type Client struct {
	client *anthropic.Client
	model  string
}

// New creates a new Anthropic client with the given API key.
func New(apiKey string, opts ...ClientOption) *Client {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	c := &Client{
		client: &client,
		model:  DefaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClientOption configures the Anthropic client.
type ClientOption func(*Client)

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// Complete sends a single-turn prompt and returns the full completion.
func (c *Client) Complete(ctx context.Context, prompt string, opts ...ai.Option) (*ai.Completion, error) {
	options := ai.ApplyOptions(opts...)
	model := c.model
	if options.Model != "" {
		model = options.Model
	}

	maxTokens := int64(4096)
	if options.MaxTokens > 0 {
		maxTokens = int64(options.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if options.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: options.System}}
	}
	if options.Temperature != nil {
		params.Temperature = anthropic.Float(*options.Temperature)
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}

	if resp.StopReason == "refusal" {
		return nil, ai.NewContentFilteredError("model refused to respond", nil)
	}

	content := ""
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	return &ai.Completion{
		Content:      content,
		Model:        string(resp.Model),
		FinishReason: string(resp.StopReason),
		Usage: ai.Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
	}, nil
}

var _ ai.CompletionProvider = (*Client)(nil)
