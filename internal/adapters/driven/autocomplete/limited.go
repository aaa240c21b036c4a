// Package autocomplete wraps autocomplete sources with throttling and
// caching, so keystroke-driven lookups do not flood the backing source.
package autocomplete

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/cpanel/internal/core/domain"
	"github.com/custodia-labs/cpanel/internal/core/ports/driven"
	"github.com/custodia-labs/cpanel/internal/logger"
)

// Ensure Limited implements the interface.
var _ driven.AutocompleteSource = (*Limited)(nil)

// DefaultCacheSize is the number of answers kept by a Limited source.
const DefaultCacheSize = 64

// Config configures a Limited source.
type Config struct {
	// RequestsPerSecond is the sustained request rate.
	RequestsPerSecond float64

	// Burst is the number of requests allowed at once.
	Burst int

	// CacheSize bounds the answer cache. Zero uses DefaultCacheSize,
	// a negative value disables caching.
	CacheSize int
}

// Limited throttles an autocomplete source with a token bucket and caches
// its answers. Cached answers do not consume tokens.
type Limited struct {
	source  driven.AutocompleteSource
	limiter *rate.Limiter

	mu    sync.Mutex
	size  int
	order []string
	cache map[string][]domain.AutocompleteValue
}

// NewLimited wraps source.
func NewLimited(source driven.AutocompleteSource, cfg Config) *Limited {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	return &Limited{
		source:  source,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		size:    cfg.CacheSize,
		cache:   make(map[string][]domain.AutocompleteValue),
	}
}

// Autocomplete answers from the cache or waits for a token and asks the
// wrapped source. The wait is abandoned when ctx is done.
func (l *Limited) Autocomplete(ctx context.Context, model, field, term string, limit int) ([]domain.AutocompleteValue, error) {
	key := cacheKey(model, field, term, limit)
	if values, ok := l.cached(key); ok {
		return values, nil
	}

	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("autocomplete %s.%s: %w", model, field, err)
	}

	values, err := l.source.Autocomplete(ctx, model, field, term, limit)
	if err != nil {
		logger.Debug("autocomplete: %s.%s %q failed: %v", model, field, term, err)
		return nil, err
	}
	l.store(key, values)
	return copyValues(values), nil
}

// Purge drops every cached answer, e.g. after the views were reloaded.
func (l *Limited) Purge() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.order = nil
	l.cache = make(map[string][]domain.AutocompleteValue)
}

func (l *Limited) cached(key string) ([]domain.AutocompleteValue, bool) {
	if l.size < 0 {
		return nil, false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	values, ok := l.cache[key]
	if !ok {
		return nil, false
	}
	return copyValues(values), true
}

// store keeps values, evicting the oldest answer when full.
func (l *Limited) store(key string, values []domain.AutocompleteValue) {
	if l.size < 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.cache[key]; !ok {
		l.order = append(l.order, key)
	}
	l.cache[key] = copyValues(values)
	for len(l.order) > l.size {
		delete(l.cache, l.order[0])
		l.order = l.order[1:]
	}
}

func cacheKey(model, field, term string, limit int) string {
	return fmt.Sprintf("%s\x00%s\x00%s\x00%d", model, field, strings.ToLower(term), limit)
}

func copyValues(values []domain.AutocompleteValue) []domain.AutocompleteValue {
	if values == nil {
		return nil
	}
	return append([]domain.AutocompleteValue(nil), values...)
}
