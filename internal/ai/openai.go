package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/starford/raido/internal/models"
)

// DefaultModel is used when the configuration does not name one.
const DefaultModel = "gpt-4o-mini"

// Client implements Summarizer and RelatedFinder against any
// OpenAI-compatible chat completions API.
type Client struct {
	api   openai.Client
	model string
}

// ClientOption configures a Client.
type ClientOption func(*Client, *[]option.RequestOption)

// WithModel sets the completion model.
func WithModel(model string) ClientOption {
	return func(c *Client, _ *[]option.RequestOption) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL points the client at a compatible non-OpenAI endpoint.
func WithBaseURL(baseURL string) ClientOption {
	return func(_ *Client, reqOpts *[]option.RequestOption) {
		if baseURL != "" {
			*reqOpts = append(*reqOpts, option.WithBaseURL(baseURL))
		}
	}
}

// NewClient creates a client with the given API key.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{model: DefaultModel}
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	for _, opt := range opts {
		opt(c, &reqOpts)
	}
	c.api = openai.NewClient(reqOpts...)
	return c
}

var _ Summarizer = (*Client)(nil)
var _ RelatedFinder = (*Client)(nil)

// Summarize asks the model for a title, one-sentence description, and topic
// label for the URL. The line-oriented response format keeps parsing dumb.
func (c *Client) Summarize(ctx context.Context, url string) (Summary, error) {
	prompt := fmt.Sprintf(`Based on the content found at the URL %q, provide:
1. A concise title.
2. A one-sentence description.
3. A single category for it from this list: AI/ML, Web Development, Design, Productivity, Career, Other.

Format your response exactly like this, with each item on a new line:
Title: [The title]
Description: [The description]
Topic: [The category]`, url)

	text, err := c.complete(ctx, prompt)
	if err != nil {
		return Summary{}, fmt.Errorf("ai: summarize: %w", err)
	}

	sum := Summary{Title: "Untitled", Description: "No description available.", Topic: "Other"}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "title:"):
			sum.Title = strings.TrimSpace(line[len("title:"):])
		case strings.HasPrefix(lower, "description:"):
			sum.Description = strings.TrimSpace(line[len("description:"):])
		case strings.HasPrefix(lower, "topic:"):
			sum.Topic = strings.TrimSpace(line[len("topic:"):])
		}
	}
	return sum, nil
}

// FindRelated asks the model to pick up to five related candidates. Replies
// are filtered against the real candidate set, so a hallucinated id can
// never leak out.
func (c *Client) FindRelated(ctx context.Context, source models.Link, candidates []models.Link) ([]string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "The user saved this resource:\n%s — %s (%s)\n\n", source.Title, source.Description, source.URL)
	b.WriteString("From the numbered list below, reply with the ids (one per line) of up to five resources most related to it. Reply with only ids, or the word none.\n\n")
	valid := make(map[string]struct{}, len(candidates))
	for _, cand := range candidates {
		if cand.ID == source.ID {
			continue
		}
		valid[cand.ID] = struct{}{}
		fmt.Fprintf(&b, "id=%s title=%s description=%s\n", cand.ID, cand.Title, cand.Description)
	}
	if len(valid) == 0 {
		return []string{}, nil
	}

	text, err := c.complete(ctx, b.String())
	if err != nil {
		return nil, fmt.Errorf("ai: find related: %w", err)
	}

	var out []string
	for _, line := range strings.Split(text, "\n") {
		id := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "id="))
		if _, ok := valid[id]; ok {
			out = append(out, id)
		}
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
