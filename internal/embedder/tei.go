package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/dshills/docindex/pkg/types"
)

// Defaults for the TEI-style HTTP provider.
const (
	DefaultMaxBatch  = 512
	probeInterval    = 500 * time.Millisecond
	probeDialTimeout = time.Second
	requestTimeout   = 120 * time.Second
)

// TEIProvider talks to a text-embeddings-inference style HTTP server:
// POST /embed {"inputs": [...]} returns one float vector per input. One
// provider instance is shared by all concurrent workers in a process; the
// server handles its own internal batching, so calls may be issued
// concurrently.
type TEIProvider struct {
	baseURL    string
	maxBatch   int
	httpClient *http.Client
	cache      *Cache
}

// NewTEIProvider creates a provider for the server at baseURL
// (e.g. "http://127.0.0.1:8000"). maxBatch is the server's
// max-client-batch-size; zero means DefaultMaxBatch. cache may be nil.
func NewTEIProvider(baseURL string, maxBatch int, cache *Cache) *TEIProvider {
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatch
	}
	return &TEIProvider{
		baseURL:    baseURL,
		maxBatch:   maxBatch,
		httpClient: &http.Client{Timeout: requestTimeout},
		cache:      cache,
	}
}

func (p *TEIProvider) MaxBatch() int {
	return p.maxBatch
}

// EmbedBatch embeds texts in input order. Cached vectors are reused; only
// misses go to the server, in one request.
func (p *TEIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if len(texts) > p.maxBatch {
		return nil, fmt.Errorf("%w: %d > %d", types.ErrBatchTooLarge, len(texts), p.maxBatch)
	}

	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string
	for i, t := range texts {
		if p.cache != nil {
			if v, ok := p.cache.Get(ComputeHash(t)); ok {
				out[i] = v
				continue
			}
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vectors, err := p.callAPI(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missTexts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts",
			types.ErrProviderFailed, len(vectors), len(missTexts))
	}

	for j, v := range vectors {
		out[missIdx[j]] = v
		if p.cache != nil {
			p.cache.Set(ComputeHash(missTexts[j]), v)
		}
	}
	return out, nil
}

func (p *TEIProvider) callAPI(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(map[string]any{"inputs": texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrProviderFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", types.ErrProviderFailed, resp.StatusCode, string(b))
	}

	var vectors [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return vectors, nil
}

// WaitReady polls a TCP connect to the provider until it accepts or the
// context deadline passes. The deadline is the only bounded wait in the
// pipeline; everything else runs to completion.
func (p *TEIProvider) WaitReady(ctx context.Context) error {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return fmt.Errorf("%w: bad url %s", types.ErrServiceUnavailable, p.baseURL)
	}
	addr := u.Host
	if u.Port() == "" {
		addr = net.JoinHostPort(u.Hostname(), defaultPort(u.Scheme))
	}

	for {
		conn, err := net.DialTimeout("tcp", addr, probeDialTimeout)
		if err == nil {
			_ = conn.Close()
			log.Printf("[embed] provider ready at %s", addr)
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s not reachable: %v", types.ErrServiceUnavailable, addr, err)
		case <-time.After(probeInterval):
		}
	}
}

func (p *TEIProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

func defaultPort(scheme string) string {
	if scheme == "https" {
		return "443"
	}
	return "80"
}
