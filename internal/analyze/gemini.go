// AngelaMos | 2026
// gemini.go

package analyze

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/angelamos/chefbot-api/internal/config"
)

const systemPrompt = `You are a cooking assistant. You receive a photo of ` +
	`ingredients. Identify the ingredients you can see, then suggest recipes ` +
	`that can be made with them. Respond with JSON only, in this exact shape: ` +
	`{"ingredients": ["..."], "recipes": [{"title": "...", ` +
	`"ingredients": ["..."], "steps": ["..."], "timeMins": 30}]}`

// UpstreamError reports a non-2xx response from the vision API. The body is
// truncated so handler logs stay bounded.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("vision api returned %d: %s", e.Status, e.Body)
}

// Gateway produces recipe suggestions for an ingredient photo.
type Gateway interface {
	Analyze(
		ctx context.Context,
		image []byte,
		mimeType string,
		prompt string,
	) (*AnalyzeResponse, error)
}

// GeminiClient calls the Gemini generateContent REST endpoint directly.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewGeminiClient(cfg config.GeminiConfig) *GeminiClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	return &GeminiClient{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig generationCfg   `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *geminiBlobPart `json:"inline_data,omitempty"`
}

type geminiBlobPart struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationCfg struct {
	Temperature     float64 `json:"temperature"`
	CandidateCount  int     `json:"candidateCount"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *GeminiClient) Analyze(
	ctx context.Context,
	image []byte,
	mimeType string,
	prompt string,
) (*AnalyzeResponse, error) {
	text := systemPrompt
	if prompt != "" {
		text += "\n\nUser request: " + prompt
	}

	payload := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: text},
				{InlineData: &geminiBlobPart{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
		GenerationConfig: generationCfg{
			Temperature:     0.7,
			CandidateCount:  1,
			MaxOutputTokens: 2048,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal vision request: %w", err)
	}

	url := fmt.Sprintf(
		"%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, c.model, c.apiKey,
	)

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, url, bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("create vision request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call vision api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read vision response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{
			Status: resp.StatusCode,
			Body:   truncate(string(respBody), 1000),
		}
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode vision response: %w", err)
	}

	if len(parsed.Candidates) == 0 ||
		len(parsed.Candidates[0].Content.Parts) == 0 {
		slog.Warn("vision response carried no candidates")
		return emptyResult(), nil
	}

	return parseModelText(parsed.Candidates[0].Content.Parts[0].Text), nil
}

// parseModelText extracts the structured result from the model's text
// output. Models frequently wrap JSON in a markdown fence; that is stripped
// before decoding. Unparseable output degrades to an empty result rather
// than failing the request.
func parseModelText(text string) *AnalyzeResponse {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var result AnalyzeResponse
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		slog.Warn("model output was not valid JSON, returning empty result",
			"error", err,
		)
		return emptyResult()
	}

	if result.Ingredients == nil {
		result.Ingredients = []string{}
	}
	if result.Recipes == nil {
		result.Recipes = []Recipe{}
	}

	return &result
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
