// Package entropy provides the randomness used by a garden run: true random
// seeds from random.org (crypto/rand fallback), deterministic seeded streams
// and the weighted sampling primitive every stochastic system routes through.
package entropy

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const randomOrgURL = "https://api.random.org/json-rpc/4/invoke"

// Client provides true random numbers from random.org with a local pool.
// Only run seeds are drawn from it; gameplay never touches the network.
type Client struct {
	apiKey   string
	endpoint string
	client   *http.Client

	mu   sync.Mutex
	pool []uint64
}

// NewClient creates a random.org client. Returns nil if apiKey is empty.
func NewClient(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		apiKey:   apiKey,
		endpoint: randomOrgURL,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Enabled returns true if the client has a valid API key.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Seed returns a non-zero run seed. Uses the random.org pool when available,
// crypto/rand otherwise.
func (c *Client) Seed(ctx context.Context) int64 {
	if !c.Enabled() {
		return cryptoSeed()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pool) == 0 {
		if err := c.refill(ctx); err != nil {
			slog.Debug("random.org unavailable, using crypto/rand", "error", err)
		}
	}
	if len(c.pool) == 0 {
		return cryptoSeed()
	}

	val := c.pool[0]
	c.pool = c.pool[1:]
	return nonZero(int64(val >> 1))
}

func (c *Client) refill(ctx context.Context) error {
	req := map[string]any{
		"jsonrpc": "2.0",
		"method":  "generateIntegers",
		"params": map[string]any{
			"apiKey": c.apiKey,
			"n":      8,
			"min":    1,
			"max":    1_000_000_000,
		},
		"id": 1,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("random.org fetch: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var result struct {
		Result struct {
			Random struct {
				Data []uint64 `json:"data"`
			} `json:"random"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	if result.Error != nil {
		return fmt.Errorf("random.org API error: %s", result.Error.Message)
	}

	// Spread each small integer across 64 bits so seeds do not cluster.
	for _, v := range result.Result.Random.Data {
		c.pool = append(c.pool, v*0x9E3779B97F4A7C15)
	}
	slog.Debug("random.org pool refilled", "count", len(result.Result.Random.Data))
	return nil
}

// cryptoSeed generates a seed using crypto/rand.
func cryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// Never expected; keep runs startable.
		return time.Now().UnixNano()
	}
	return nonZero(int64(binary.LittleEndian.Uint64(buf[:]) >> 1))
}

// NewSeed returns a seed from the client if available, or crypto/rand.
func NewSeed(ctx context.Context, c *Client) int64 {
	if c.Enabled() {
		return c.Seed(ctx)
	}
	return cryptoSeed()
}

// nonZero keeps 0 free as the "pick one for me" sentinel used by config.
func nonZero(seed int64) int64 {
	if seed == 0 {
		return 1
	}
	return seed
}
