package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	"google.golang.org/genai"

	errx "github.com/trade-chatbot/server/internal/core/error"
	logx "github.com/trade-chatbot/server/pkg/logger"
)

// Config holds the Gemini connection parameters, sourced from environment.
type Config struct {
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	Model   string `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`
}

// Client wraps one long-lived Gemini client. Constructed once at process
// start and injected where needed; safe for concurrent use.
type Client struct {
	g     *genai.Client
	model string
}

// New creates the Gemini client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	g, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{g: g, model: cfg.Model}, nil
}

// IsRateLimited reports whether the error chain carries a 429 from the model
// API.
func IsRateLimited(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests
	}
	var appErr *errx.AppError
	if errors.As(err, &appErr) {
		return appErr.Status == http.StatusTooManyRequests
	}
	return false
}

const strictJSONSuffix = "\n\nАНХААР: ӨӨР ТЕКСТ БИЧИХГҮЙ. ЗӨВХӨН НЭГ JSON ОБЪЕКТ БУЦАА. " +
	"Markdown code fence (```), тайлбар өгүүлбэр, нэмэлт тэмдэгт бичихийг хориглоно."

const maxErrSnippet = 1200

// JSON asks the model for a single JSON object and parses it into a mapping.
// Malformed output goes through json-repair, then one retry with a stricter
// prompt at temperature zero; if that also fails the error carries both raw
// snippets for diagnosis. A quota rejection propagates so the caller can
// switch to the deterministic fallback extractor.
func (c *Client) JSON(ctx context.Context, prompt string) (map[string]any, error) {
	raw, err := c.generate(ctx, prompt, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr(float32(0.2)),
	})
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, errx.New(fmt.Errorf("empty json response"), http.StatusBadGateway, errx.LLMErrorMessage)
	}

	out, err1 := parseJSONObject(raw)
	if err1 == nil {
		return out, nil
	}

	logx.Warn().Err(err1).Str("component", "llm").Msg("malformed json from model, retrying with strict prompt")

	raw2, err := c.generate(ctx, prompt+strictJSONSuffix, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr(float32(0.0)),
	})
	if err != nil {
		return nil, err
	}

	out, err2 := parseJSONObject(raw2)
	if err2 == nil {
		return out, nil
	}

	err = fmt.Errorf("parse model json after retry: err1=%v; err2=%v; raw1=%q; raw2=%q",
		err1, err2, snippet(raw), snippet(raw2))
	return nil, errx.New(err, http.StatusInternalServerError, errx.LLMErrorMessage)
}

// Text asks the model for free text. A quota rejection yields an empty
// string so the caller falls back to its templated base answer; any other
// failure propagates.
func (c *Client) Text(ctx context.Context, prompt string) (string, error) {
	raw, err := c.generate(ctx, prompt, &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.4)),
	})
	if err != nil {
		if IsRateLimited(err) {
			logx.Warn().Str("component", "llm").Msg("model quota exceeded, returning empty text")
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

func (c *Client) generate(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	resp, err := c.g.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
			return "", errx.New(err, http.StatusTooManyRequests, errx.RateLimitedMessage)
		}
		return "", errx.New(err, http.StatusBadGateway, errx.LLMErrorMessage)
	}
	return strings.TrimSpace(resp.Text()), nil
}

// extractJSONText strips markdown fences and anything outside the outermost
// braces.
func extractJSONText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	i := strings.Index(s, "{")
	j := strings.LastIndex(s, "}")
	if i != -1 && j != -1 && j > i {
		return strings.TrimSpace(s[i : j+1])
	}
	return strings.TrimSpace(s)
}

// parseJSONObject parses model output into a mapping, running json-repair
// when a straight parse fails.
func parseJSONObject(raw string) (map[string]any, error) {
	text := extractJSONText(raw)

	var out map[string]any
	if err := json.Unmarshal([]byte(text), &out); err == nil {
		return out, nil
	}

	repaired, err := jsonrepair.RepairJSON(text)
	if err != nil {
		return nil, fmt.Errorf("repair json: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &out); err != nil {
		return nil, fmt.Errorf("unmarshal repaired json: %w", err)
	}
	return out, nil
}

func snippet(s string) string {
	if len(s) <= maxErrSnippet {
		return s
	}
	return s[:maxErrSnippet]
}
