package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Cache provides typed caching for provider responses. Quote snapshots are
// cached briefly so a rebalance review does not re-fetch every holding.
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper.
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

// Get retrieves a cached value. A missing key is a miss, not an error.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	fullKey := fmt.Sprintf("%s:cache:%s", c.prefix, key)
	data, err := c.client.Redis().Get(ctx, fullKey).Bytes()
	if err != nil {
		return false, nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value in cache with a TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	fullKey := fmt.Sprintf("%s:cache:%s", c.prefix, key)
	return c.client.Redis().Set(ctx, fullKey, data, ttl).Err()
}

// Delete removes a cached value.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}

	fullKey := fmt.Sprintf("%s:cache:%s", c.prefix, key)
	return c.client.Redis().Del(ctx, fullKey).Err()
}

// Predefined TTLs.
const (
	TTLQuote       = 5 * time.Minute  // point-in-time quotes during one review
	TTLFundamental = 6 * time.Hour    // fundamentals move slowly
	TTLResearch    = 1 * time.Hour    // consensus/short-interest bundle
)

// QuoteKey builds the cache key for a ticker quote.
func QuoteKey(ticker string) string {
	return fmt.Sprintf("quote:%s", ticker)
}

// FundamentalsKey builds the cache key for ticker fundamentals.
func FundamentalsKey(ticker string) string {
	return fmt.Sprintf("fundamentals:%s", ticker)
}

// ResearchKey builds the cache key for a ticker research bundle.
func ResearchKey(ticker string) string {
	return fmt.Sprintf("research:%s", ticker)
}
