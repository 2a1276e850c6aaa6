package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"finance-tracker/internal/config"
)

const maxOllamaResponse = 4 << 20

type ollamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format"`
	Images  []string       `json:"images,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// OllamaClient talks to a local Ollama server through /api/generate
type OllamaClient struct {
	host        string
	model       string
	visionModel string
	temperature float64
	httpClient  *http.Client
}

func NewOllamaClient(cfg config.LLMConfig, httpClient *http.Client) *OllamaClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &OllamaClient{
		host:        strings.TrimRight(cfg.OllamaHost, "/"),
		model:       cfg.OllamaModel,
		visionModel: cfg.OllamaVisionModel,
		temperature: cfg.Temperature,
		httpClient:  httpClient,
	}
}

func (c *OllamaClient) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, ollamaRequest{Model: c.model, Prompt: prompt})
}

// ExtractFromImage sends the file as a base64 image to the vision model
func (c *OllamaClient) ExtractFromImage(ctx context.Context, prompt string, data []byte, mimeType string) (string, error) {
	return c.generate(ctx, ollamaRequest{
		Model:  c.visionModel,
		Prompt: prompt,
		Images: []string{base64.StdEncoding.EncodeToString(data)},
	})
}

func (c *OllamaClient) VisionModel() string {
	return c.visionModel
}

func (c *OllamaClient) generate(ctx context.Context, body ollamaRequest) (string, error) {
	body.Stream = false
	body.Format = "json"
	body.Options = map[string]any{"temperature": c.temperature}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxOllamaResponse))
	if err != nil {
		return "", fmt.Errorf("failed to read ollama response: %w", err)
	}

	var decoded ollamaResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("failed to decode ollama response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, decoded.Error)
	}
	if strings.TrimSpace(decoded.Response) == "" {
		return "", ErrLLMEmptyResponse
	}
	return decoded.Response, nil
}
