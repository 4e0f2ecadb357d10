package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"storefront/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// MinPromptLength 生成请求的最短提示词
const MinPromptLength = 20

// Generator AI 文案生成
type Generator interface {
	GenerateProduct(ctx context.Context, prompt string) (*domain.ProductDraft, error)
	GenerateBlogPost(ctx context.Context, prompt string) (*domain.BlogPostDraft, error)
}

// chatRequest OpenAI 兼容 chat completions 请求
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GeneratorClient 调用 OpenAI 兼容接口（默认 NVIDIA NIM）
type GeneratorClient struct {
	httpClient *resty.Client
	model      string
	logger     *zap.Logger
}

var _ Generator = (*GeneratorClient)(nil)

func NewGeneratorClient(baseURL, apiKey, model string, timeout time.Duration, logger *zap.Logger) *GeneratorClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &GeneratorClient{httpClient: client, model: model, logger: logger}
}

const productSystemPrompt = `You are a product description writer for an online store.
Respond with JSON only, no prose, in exactly this shape:
{"title": "...", "description": "...", "category": "...", "price_suggestion": 0.0, "sku_suggestion": "..."}
The price must be a number. Build the SKU from the product name initials and digits.`

const blogSystemPrompt = `You are a content writer for an online store blog.
Respond with JSON only, no prose, in exactly this shape:
{"title": "...", "content": "...", "meta_description": "...", "tags": ["..."], "category": "..."}
Write the content in markdown. Keep meta_description under 160 characters.`

func checkPrompt(prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if len([]rune(prompt)) < MinPromptLength {
		return "", domain.InvalidInput("prompt must be at least %d characters", MinPromptLength)
	}
	return prompt, nil
}

func (c *GeneratorClient) GenerateProduct(ctx context.Context, prompt string) (*domain.ProductDraft, error) {
	prompt, err := checkPrompt(prompt)
	if err != nil {
		return nil, err
	}
	raw, err := c.complete(ctx, productSystemPrompt, "Generate a complete product description based on: "+prompt)
	if err != nil {
		return nil, err
	}
	return ParseProductDraft(raw)
}

func (c *GeneratorClient) GenerateBlogPost(ctx context.Context, prompt string) (*domain.BlogPostDraft, error) {
	prompt, err := checkPrompt(prompt)
	if err != nil {
		return nil, err
	}
	raw, err := c.complete(ctx, blogSystemPrompt, "Write a blog post about: "+prompt)
	if err != nil {
		return nil, err
	}
	return ParseBlogPostDraft(raw)
}

func (c *GeneratorClient) complete(ctx context.Context, system, user string) (string, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.7,
	}

	c.logger.Info("Calling AI chat completions", zap.String("model", c.model))

	var out chatResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&out).
		Post("/chat/completions")
	if err != nil {
		c.logger.Error("AI API call failed", zap.Error(err))
		return "", fmt.Errorf("failed to call AI API: %w", err)
	}
	if resp.IsError() {
		msg := resp.Status()
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		c.logger.Error("AI API returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("msg", msg))
		return "", fmt.Errorf("AI API error: %s (status: %d)", msg, resp.StatusCode())
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("AI API returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}

var fenceRe = regexp.MustCompile("```(?:json)?")

// stripFences removes markdown code fences around a model reply.
func stripFences(s string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(strings.TrimSpace(s), ""))
}

func decodeRequired(raw string, required ...string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stripFences(raw)), &fields); err != nil {
		return nil, domain.InvalidInput("invalid response format: %v", err)
	}
	var missing []string
	for _, f := range required {
		if v, ok := fields[f]; !ok || string(v) == "null" {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, domain.InvalidInput("invalid response format: missing %s", strings.Join(missing, ", "))
	}
	return fields, nil
}

// ParseProductDraft validates a model reply for a product.
func ParseProductDraft(raw string) (*domain.ProductDraft, error) {
	fields, err := decodeRequired(raw, "title", "description", "category", "price_suggestion", "sku_suggestion")
	if err != nil {
		return nil, err
	}
	var price float64
	if err := json.Unmarshal(fields["price_suggestion"], &price); err != nil {
		return nil, domain.InvalidInput("invalid response format: price suggestion must be a number")
	}
	var d domain.ProductDraft
	if err := json.Unmarshal([]byte(stripFences(raw)), &d); err != nil {
		return nil, domain.InvalidInput("invalid response format: %v", err)
	}
	return &d, nil
}

// ParseBlogPostDraft validates a model reply for a blog post.
func ParseBlogPostDraft(raw string) (*domain.BlogPostDraft, error) {
	if _, err := decodeRequired(raw, "title", "content", "meta_description", "tags", "category"); err != nil {
		return nil, err
	}
	var d domain.BlogPostDraft
	if err := json.Unmarshal([]byte(stripFences(raw)), &d); err != nil {
		return nil, domain.InvalidInput("invalid response format: %v", err)
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return &d, nil
}
