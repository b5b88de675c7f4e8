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
	openAIChatURL      = "https://api.openai.com/v1/chat/completions"
	openAIDefaultModel = "gpt-4o-mini"
)

// Cost per million tokens, used to estimate spend per agent invocation.
// Unknown models report zero cost rather than a guess.
var openAIPricing = map[string]tokenPricing{
	"gpt-4o-mini": {input: 0.15, output: 0.60},
	"gpt-4o":      {input: 2.50, output: 10.00},
}

type tokenPricing struct {
	input  float64
	output float64
}

func (p tokenPricing) cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)*p.input/1e6 + float64(outputTokens)*p.output/1e6
}

type OpenAIClient struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = openAIDefaultModel
	}
	return &OpenAIClient{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{},
	}
}

// chat types for OpenAI API
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *OpenAIClient) Chat(ctx context.Context, messages []domain.Message) (*domain.ChatResult, error) {
	converted := make([]chatMessage, len(messages))
	for i, m := range messages {
		converted[i] = chatMessage{Role: m.Role, Content: m.Content}
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    converted,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIChatURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read chat response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chat API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("unmarshal chat response: %w", err)
	}

	if result.Error != nil {
		return nil, fmt.Errorf("chat API error: %s", result.Error.Message)
	}

	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("chat API returned no choices")
	}

	return &domain.ChatResult{
		Content:      strings.TrimSpace(result.Choices[0].Message.Content),
		Model:        c.model,
		InputTokens:  result.Usage.PromptTokens,
		OutputTokens: result.Usage.CompletionTokens,
		Cost:         openAIPricing[c.model].cost(result.Usage.PromptTokens, result.Usage.CompletionTokens),
	}, nil
}

var _ domain.ChatClient = (*OpenAIClient)(nil)
