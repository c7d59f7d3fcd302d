package semantic

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// GeminiClient implements Embedder and Completer with Google's Gemini SDK.
type GeminiClient struct {
	apiKey     string
	baseURL    string // Empty uses the SDK default endpoint
	embedModel string
	llmModel   string

	mu     sync.Mutex
	client *genai.Client
}

var (
	_ Embedder  = &GeminiClient{} // Compile-time check
	_ Completer = &GeminiClient{} // Compile-time check
)

// NewGeminiClient creates a client. The SDK client is built lazily on first use.
func NewGeminiClient(apiKey, embedModel, llmModel string) *GeminiClient {
	return &GeminiClient{apiKey: apiKey, embedModel: embedModel, llmModel: llmModel}
}

// ensureClient initializes the SDK client if not already initialized.
func (c *GeminiClient) ensureClient(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("gemini API key is not set")
	}
	cfg := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  c.apiKey,
	}
	if c.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.client = client
	return client, nil
}

// Model returns the embedding model name.
func (c *GeminiClient) Model() string {
	return c.embedModel
}

// Embed embeds every text with one EmbedContent call.
func (c *GeminiClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	client, err := c.ensureClient(ctx)
	if err != nil {
		return nil, err
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}
	resp, err := client.Models.EmbedContent(ctx, c.embedModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("Gemini embed error: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("Gemini embed: got %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}
	vectors := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		vectors[i] = e.Values
	}
	return vectors, nil
}

// Complete asks the LLM model with system as the system instruction.
func (c *GeminiClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	client, err := c.ensureClient(ctx)
	if err != nil {
		return "", err
	}
	config := &genai.GenerateContentConfig{}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	result, err := client.Models.GenerateContent(ctx, c.llmModel, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	return strings.TrimSpace(result.Text()), nil
}
