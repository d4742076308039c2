package google

import (
	"context"

	ai "github.com/spetersoncode/strand"
	"google.golang.org/genai"
)

// DefaultModel is used when neither the client nor the request sets one.
const DefaultModel = "gemini-2.0-flash"

// Client wraps the Google GenAI SDK to implement ai.CompletionProvider.
type Client struct {
	client *genai.Client
	model  string
}

// New creates a new Google GenAI client with the given API key. The SDK
// requires a context at construction and can fail on invalid configuration.
func New(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	c := &Client{
		client: client,
		model:  DefaultModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ClientOption configures the Google client.
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

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	config := &genai.GenerateContentConfig{}
	if options.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: options.System}},
		}
	}
	if options.MaxTokens > 0 {
		config.MaxOutputTokens = int32(options.MaxTokens)
	}
	if options.Temperature != nil {
		temp := float32(*options.Temperature)
		config.Temperature = &temp
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, wrapError(err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, ai.NewContentFilteredError("prompt blocked: "+string(resp.PromptFeedback.BlockReason), nil)
	}

	content := ""
	finishReason := ""
	if len(resp.Candidates) > 0 {
		candidate := resp.Candidates[0]
		finishReason = string(candidate.FinishReason)
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					content += part.Text
				}
			}
		}
	}

	switch finishReason {
	case "SAFETY", "PROHIBITED_CONTENT", "BLOCKLIST":
		return nil, ai.NewContentFilteredError("response blocked: "+finishReason, nil)
	}

	usage := ai.Usage{}
	if resp.UsageMetadata != nil {
		usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return &ai.Completion{
		Content:      content,
		Model:        model,
		FinishReason: finishReason,
		Usage:        usage,
	}, nil
}

var _ ai.CompletionProvider = (*Client)(nil)
