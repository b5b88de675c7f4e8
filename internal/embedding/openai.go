package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	openAIEmbeddingURL = "https://api.openai.com/v1/embeddings"

	// claimEmbeddingModel produces the vectors behind claim similarity
	// search. Its dimensionality must match the arguments table's vector
	// column.
	claimEmbeddingModel = "text-embedding-3-small"
	claimDimensions     = 1536
)

// OpenAIClient embeds claim texts for similarity search over argument
// snapshots.
type OpenAIClient struct {
	apiKey     string
	httpClient *http.Client
}

func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type embeddingRequest struct {
	Model      string `json:"model"`
	Input      string `json:"input"`
	Dimensions int    `json:"dimensions"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Embed returns the claim's vector. The response is validated against the
// expected dimensionality so a model change upstream cannot silently write
// mismatched vectors.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(embeddingRequest{
		Model:      claimEmbeddingModel,
		Input:      text,
		Dimensions: claimDimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIEmbeddingURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result embeddingResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unmarshal embedding response: %w", err)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("embedding API error: %s", result.Error.Message)
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("embedding API returned no data")
	}

	vec := result.Data[0].Embedding
	if len(vec) != claimDimensions {
		return nil, fmt.Errorf("embedding has %d dimensions, want %d", len(vec), claimDimensions)
	}
	return vec, nil
}
