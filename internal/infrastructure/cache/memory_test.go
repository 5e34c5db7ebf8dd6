package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/churbro/backend/internal/domain"
	"github.com/shopspring/decimal"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache() (*MemoryCache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemoryCache(0)
	c.now = clock.Now
	return c, clock
}

func TestMemoryCache_SetAndGet(t *testing.T) {
	ctx := context.Background()

	t.Run("store and retrieve string", func(t *testing.T) {
		c, _ := newTestCache()
		if err := c.Set(ctx, "k", "value", time.Minute); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		var got string
		if err := c.Get(ctx, "k", &got); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got != "value" {
			t.Errorf("Get() = %q, want %q", got, "value")
		}
	})

	t.Run("store and retrieve dataset", func(t *testing.T) {
		c, _ := newTestCache()
		ds := domain.Dataset{
			TotalProducts: 1,
			Stores:        map[string]int{"New World": 1},
			Products:      []domain.MasterRecord{{Store: "New World", Name: "Beef Mince 500g", Price: decimal.RequireFromString("8.99")}},
		}
		if err := c.Set(ctx, "dataset", ds, time.Minute); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		var got domain.Dataset
		if err := c.Get(ctx, "dataset", &got); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.TotalProducts != 1 || len(got.Products) != 1 {
			t.Fatalf("Get() = %+v, want one product", got)
		}
		if !got.Products[0].Price.Equal(decimal.RequireFromString("8.99")) {
			t.Errorf("price = %s, want 8.99", got.Products[0].Price)
		}
	})

	t.Run("cached copies are independent", func(t *testing.T) {
		c, _ := newTestCache()
		stores := map[string]int{"Woolworths": 2}
		_ = c.Set(ctx, "stores", stores, time.Minute)
		stores["Woolworths"] = 99

		var got map[string]int
		if err := c.Get(ctx, "stores", &got); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got["Woolworths"] != 2 {
			t.Errorf("cached value mutated: %v", got)
		}
	})

	t.Run("unencodable value", func(t *testing.T) {
		c, _ := newTestCache()
		if err := c.Set(ctx, "ch", make(chan int), time.Minute); err == nil {
			t.Error("Set() expected error for channel value")
		}
	})
}

func TestMemoryCache_Expiration(t *testing.T) {
	ctx := context.Background()
	c, clock := newTestCache()

	_ = c.Set(ctx, "short", "expires-soon", time.Second)
	clock.Advance(2 * time.Second)

	var got string
	if err := c.Get(ctx, "short", &got); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("Get() after expiry error = %v, want ErrCacheMiss", err)
	}
	if ok, _ := c.Exists(ctx, "short"); ok {
		t.Error("Exists() = true for expired key")
	}

	c.removeExpired()
	if c.Size() != 0 {
		t.Errorf("Size() = %d after sweep, want 0", c.Size())
	}
}

func TestMemoryCache_DeleteAndClear(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache()

	_ = c.Set(ctx, "a", 1, time.Minute)
	_ = c.Set(ctx, "b", 2, time.Minute)

	if ok, _ := c.Exists(ctx, "a"); !ok {
		t.Error("Exists(a) = false, want true")
	}
	_ = c.Delete(ctx, "a")
	if ok, _ := c.Exists(ctx, "a"); ok {
		t.Error("Exists(a) = true after Delete")
	}

	var n int
	if err := c.Get(ctx, "missing", &n); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("Get(missing) error = %v, want ErrCacheMiss", err)
	}

	c.Clear()
	if c.Size() != 0 {
		t.Errorf("Size() = %d after Clear, want 0", c.Size())
	}
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Millisecond)
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = c.Set(ctx, "shared", i, time.Minute)
			var v int
			_ = c.Get(ctx, "shared", &v)
		}(i)
	}
	wg.Wait()

	if ok, _ := c.Exists(ctx, "shared"); !ok {
		t.Error("Exists(shared) = false after concurrent writes")
	}
}
