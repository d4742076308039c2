package openai

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	ai "github.com/spetersoncode/strand"
)

// DefaultModel is used when neither the client nor the request sets one.
const DefaultModel = "gpt-4o"

// Client wraps the OpenAI SDK to implement ai.CompletionProvider.
type Client struct {
	client *openai.Client
	model  string
}

// New creates a new OpenAI client with the given API key.
func New(apiKey string, opts ...ClientOption) *Client {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	c := &Client{
		client: &client,
		model:  DefaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClientOption configures the OpenAI client.
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

	var messages []openai.ChatCompletionMessageParamUnion
	if options.System != "" {
		messages = append(messages, openai.SystemMessage(options.System))
	}
	messages = append(messages, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: messages,
	}
	if options.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(options.MaxTokens))
	}
	if options.Temperature != nil {
		params.Temperature = openai.Float(*options.Temperature)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, ai.NewUnknownError("response contained no choices", 0, nil)
	}

	choice := resp.Choices[0]
	if choice.FinishReason == "content_filter" {
		return nil, ai.NewContentFilteredError("response blocked by content filter", nil)
	}

	return &ai.Completion{
		Content:      choice.Message.Content,
		Model:        resp.Model,
		FinishReason: string(choice.FinishReason),
		Usage: ai.Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}, nil
}

var _ ai.CompletionProvider = (*Client)(nil)
