package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ideialab/maieutica/internal/domain"
)

const (
	geminiBaseURL      = "https://generativelanguage.googleapis.com/v1beta/models"
	geminiDefaultModel = "gemini-2.0-flash"
)

var geminiPricing = map[string]tokenPricing{
	"gemini-2.0-flash": {input: 0.10, output: 0.40},
}

type GeminiClient struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewGeminiClient(apiKey, model string) *GeminiClient {
	if model == "" {
		model = geminiDefaultModel
	}
	return &GeminiClient{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{},
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

func (c *GeminiClient) Chat(ctx context.Context, messages []domain.Message) (*domain.ChatResult, error) {
	var system *geminiContent
	contents := make([]geminiContent, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			system = &geminiContent{Parts: []geminiPart{{Text: m.Content}}}
		case "assistant":
			contents = append(contents, geminiContent{Parts: []geminiPart{{Text: m.Content}}, Role: "model"})
		default:
			contents = append(contents, geminiContent{Parts: []geminiPart{{Text: m.Content}}, Role: "user"})
		}
	}

	body, err := json.Marshal(geminiRequest{
		Contents:          contents,
		SystemInstruction: system,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", geminiBaseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gemini response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result geminiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("unmarshal gemini response: %w", err)
	}

	if result.Error != nil {
		return nil, fmt.Errorf("gemini API error: %s", result.Error.Message)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini API returned no content")
	}

	return &domain.ChatResult{
		Content:      strings.TrimSpace(result.Candidates[0].Content.Parts[0].Text),
		Model:        c.model,
		InputTokens:  result.UsageMetadata.PromptTokenCount,
		OutputTokens: result.UsageMetadata.CandidatesTokenCount,
		Cost:         geminiPricing[c.model].cost(result.UsageMetadata.PromptTokenCount, result.UsageMetadata.CandidatesTokenCount),
	}, nil
}

var _ domain.ChatClient = (*GeminiClient)(nil)
