/**
 * @description
 * In-memory memoization for period summaries. Entries are keyed by employee,
 * date range, and the requested field set, and replaced wholesale on write so
 * a refresh never leaves a half-updated entry visible.
 */

package app

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gestioncarteras/cartera-service/internal/domain"
	"github.com/gestioncarteras/cartera-service/internal/reconcile"
)

// SummaryCache memoizes computed period summaries.
type SummaryCache interface {
	Get(ctx context.Context, key string) (reconcile.PeriodSummary, bool)
	Set(ctx context.Context, key string, summary reconcile.PeriodSummary)
}

// SummaryCacheKey builds a deterministic cache key. The field names are sorted
// so two equivalent field sets produce the same key.
func SummaryCacheKey(employeeID string, from, to time.Time, fields domain.FieldSet) string {
	names := []string{"all"}
	if fields != nil {
		names = names[:0]
		for f := range fields {
			names = append(names, string(f))
		}
		sort.Strings(names)
	}
	return strings.Join([]string{
		"period-summary",
		employeeID,
		from.Format("2006-01-02"),
		to.Format("2006-01-02"),
		strings.Join(names, ","),
	}, ":")
}

type memoryEntry struct {
	summary   reconcile.PeriodSummary
	expiresAt time.Time
}

// MemorySummaryCache is a process-local SummaryCache with per-entry TTL.
type MemorySummaryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemorySummaryCache creates a cache whose entries expire after ttl. A
// non-positive ttl keeps entries until overwritten.
func NewMemorySummaryCache(ttl time.Duration) *MemorySummaryCache {
	return &MemorySummaryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemorySummaryCache) Get(_ context.Context, key string) (reconcile.PeriodSummary, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return reconcile.PeriodSummary{}, false
	}
	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return reconcile.PeriodSummary{}, false
	}
	return entry.summary, true
}

func (c *MemorySummaryCache) Set(_ context.Context, key string, summary reconcile.PeriodSummary) {
	entry := memoryEntry{summary: summary}
	if c.ttl > 0 {
		entry.expiresAt = c.now().Add(c.ttl)
	}
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}
