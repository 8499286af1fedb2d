package app

import (
	"context"
	"testing"
	"time"

	"github.com/gestioncarteras/cartera-service/internal/domain"
	"github.com/gestioncarteras/cartera-service/internal/reconcile"
)

func TestSummaryCacheKey_SortsFieldNames(t *testing.T) {
	from := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 6)

	a := SummaryCacheKey("emp-1", from, to, domain.NewFieldSet(domain.FieldCollected, domain.FieldExpenses))
	b := SummaryCacheKey("emp-1", from, to, domain.NewFieldSet(domain.FieldExpenses, domain.FieldCollected))
	if a != b {
		t.Errorf("equivalent field sets produced different keys:\n%s\n%s", a, b)
	}

	all := SummaryCacheKey("emp-1", from, to, nil)
	if all == a {
		t.Error("nil field set should not collide with an explicit subset")
	}
}

func TestMemorySummaryCache_SetGet(t *testing.T) {
	cache := NewMemorySummaryCache(time.Minute)
	ctx := context.Background()

	summary := reconcile.PeriodSummary{EmployeeID: "emp-1", Partial: true}
	cache.Set(ctx, "k1", summary)

	got, ok := cache.Get(ctx, "k1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.EmployeeID != "emp-1" || !got.Partial {
		t.Errorf("cached summary = %+v", got)
	}

	if _, ok := cache.Get(ctx, "other"); ok {
		t.Error("unexpected hit for unknown key")
	}
}

func TestMemorySummaryCache_SetReplacesWholesale(t *testing.T) {
	cache := NewMemorySummaryCache(time.Minute)
	ctx := context.Background()

	cache.Set(ctx, "k1", reconcile.PeriodSummary{EmployeeID: "emp-1", Partial: true})
	cache.Set(ctx, "k1", reconcile.PeriodSummary{EmployeeID: "emp-1"})

	got, ok := cache.Get(ctx, "k1")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.Partial {
		t.Error("second Set should fully replace the first entry")
	}
}

func TestMemorySummaryCache_EntriesExpire(t *testing.T) {
	cache := NewMemorySummaryCache(time.Minute)
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	cache.Set(ctx, "k1", reconcile.PeriodSummary{EmployeeID: "emp-1"})

	now = now.Add(30 * time.Second)
	if _, ok := cache.Get(ctx, "k1"); !ok {
		t.Fatal("entry expired too early")
	}

	now = now.Add(31 * time.Second)
	if _, ok := cache.Get(ctx, "k1"); ok {
		t.Fatal("entry should have expired")
	}
}

func TestMemorySummaryCache_ZeroTTLNeverExpires(t *testing.T) {
	cache := NewMemorySummaryCache(0)
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	cache.Set(ctx, "k1", reconcile.PeriodSummary{EmployeeID: "emp-1"})
	now = now.Add(24 * time.Hour)
	if _, ok := cache.Get(ctx, "k1"); !ok {
		t.Fatal("entry with no TTL should never expire")
	}
}
