package judge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"docaudit/internal/verdict"
)

// CacheStore persists judged verdicts keyed by a digest of the content and
// the ordered rule list. Identical input with identical rules yields the
// same verdict, so re-judging is wasted spend against the LLM endpoint.
type CacheStore interface {
	Get(ctx context.Context, key string) (*verdict.Result, bool, error)
	Set(ctx context.Context, key string, result *verdict.Result) error
}

// CacheKey digests content plus rules in order. Rule order matters: the
// prompt embeds it, so a reordered rule set is a different judgment.
func CacheKey(content string, rules []string) string {
	h := sha256.New()
	h.Write([]byte(content))
	for _, rule := range rules {
		h.Write([]byte{0})
		h.Write([]byte(rule))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Cached decorates a Judge with a verdict cache. Store failures degrade to
// cache misses; they never fail the judgment.
type Cached struct {
	next   Judge
	store  CacheStore
	logger *slog.Logger
}

func NewCached(next Judge, store CacheStore, logger *slog.Logger) *Cached {
	return &Cached{next: next, store: store, logger: logger}
}

var _ Judge = (*Cached)(nil)

func (c *Cached) Judge(ctx context.Context, content string, rules []string) (*verdict.Result, error) {
	key := CacheKey(content, rules)

	cached, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.WarnContext(ctx, "judgment cache read failed", "error", err)
	} else if ok {
		return cached, nil
	}

	result, err := c.next.Judge(ctx, content, rules)
	if err != nil {
		return nil, err
	}

	if err := c.store.Set(ctx, key, result); err != nil {
		c.logger.WarnContext(ctx, "judgment cache write failed", "error", err)
	}
	return result, nil
}

// MemoryCache is the default in-process cache store.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

type memoryEntry struct {
	result    *verdict.Result
	expiresAt time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, entries: make(map[string]memoryEntry)}
}

var _ CacheStore = (*MemoryCache)(nil)

func (m *MemoryCache) Get(_ context.Context, key string) (*verdict.Result, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false, nil
	}
	return entry.result, true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, result *verdict.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{result: result, expiresAt: time.Now().Add(m.ttl)}
	return nil
}
