package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	cserrors "github.com/codescope/codescope/internal/errors"
)

// Ollama defaults.
const (
	DefaultOllamaHost  = "http://localhost:11434"
	DefaultOllamaModel = "unclemusclez/jina-embeddings-v2-base-code"

	// ollamaPoolSize bounds idle connections to the Ollama server.
	ollamaPoolSize = 4
)

// OllamaConfig configures the Ollama embedding client.
type OllamaConfig struct {
	// Host is the Ollama API endpoint (default: http://localhost:11434).
	Host string

	// Model is the embedding model name.
	Model string

	// Dimensions is the expected embedding dimension. 0 means detect from
	// the first response.
	Dimensions int

	// Timeout bounds each embed request (default: 30s).
	Timeout time.Duration
}

// OllamaProvider generates embeddings through Ollama's HTTP API.
// The client is connection-pooled and safe for concurrent use.
type OllamaProvider struct {
	client *http.Client
	config OllamaConfig

	mu     sync.RWMutex
	dims   int
	closed bool
}

var _ Provider = (*OllamaProvider)(nil)

// ollamaEmbedRequest is the request body for POST /api/embed.
type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// ollamaEmbedResponse is the response body for POST /api/embed.
type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewOllamaProvider creates an Ollama-backed embedding provider.
func NewOllamaProvider(cfg OllamaConfig) *OllamaProvider {
	if cfg.Host == "" {
		cfg.Host = DefaultOllamaHost
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	// Per-request timeouts come from context, not http.Client.Timeout,
	// so a caller-supplied deadline is never silently overridden.
	transport := &http.Transport{
		MaxIdleConns:        ollamaPoolSize,
		MaxIdleConnsPerHost: ollamaPoolSize,
		IdleConnTimeout:     30 * time.Second,
	}

	return &OllamaProvider{
		client: &http.Client{Transport: transport},
		config: cfg,
		dims:   cfg.Dimensions,
	}
}

// Embed generates one embedding per text through a single API call.
func (p *OllamaProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, cserrors.Embedding(fmt.Errorf("provider is closed"))
	}
	p.mu.RUnlock()

	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	reqCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	body, err := json.Marshal(ollamaEmbedRequest{
		Model: p.config.Model,
		Input: texts,
	})
	if err != nil {
		return nil, cserrors.Embedding(fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost,
		p.config.Host+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, cserrors.Embedding(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, cserrors.Embedding(fmt.Errorf("call ollama at %s: %w", p.config.Host, err)).
			WithDetail("backend", "ollama")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, cserrors.Embedding(fmt.Errorf("ollama status %d: %s", resp.StatusCode, msg)).
			WithDetail("backend", "ollama")
	}

	var result ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, cserrors.Embedding(fmt.Errorf("decode response: %w", err))
	}

	if len(result.Embeddings) != len(texts) {
		return nil, cserrors.Embedding(fmt.Errorf(
			"ollama returned %d embeddings for %d inputs", len(result.Embeddings), len(texts)))
	}

	vectors := make([][]float32, len(result.Embeddings))
	for i, v := range result.Embeddings {
		if err := p.checkDimensions(len(v)); err != nil {
			return nil, err
		}
		vectors[i] = normalizeVector(v)
	}

	return vectors, nil
}

// checkDimensions records the dimension on first use and rejects drift.
func (p *OllamaProvider) checkDimensions(got int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.dims == 0 {
		p.dims = got
		return nil
	}
	if got != p.dims {
		return cserrors.Embedding(fmt.Errorf(
			"embedding dimension changed: expected %d, got %d", p.dims, got))
	}
	return nil
}

// Dimensions returns the embedding dimension (0 until first embed when
// auto-detecting).
func (p *OllamaProvider) Dimensions() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dims
}

// ModelName returns the model identifier.
func (p *OllamaProvider) ModelName() string {
	return p.config.Model
}

// Available checks connectivity with a cheap version probe.
func (p *OllamaProvider) Available(ctx context.Context) bool {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return false
	}
	p.mu.RUnlock()

	reqCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, p.config.Host+"/api/version", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

// Close releases idle connections.
func (p *OllamaProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.client.CloseIdleConnections()
	return nil
}
