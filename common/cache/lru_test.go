package cache_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/etkecc/baibot/common/cache"
)

func TestLRUEviction(t *testing.T) {
	c := cache.NewLRU[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry must be evicted")
	}
	if v, ok := c.Get("b"); !ok || v != 2 {
		t.Errorf("Get(b) = %d, %v", v, ok)
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

func TestLRUGetRefreshesRecency(t *testing.T) {
	c := cache.NewLRU[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a")
	c.Put("c", 3)

	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry must survive eviction")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry must be evicted")
	}
}

func TestLoaderSingleFlight(t *testing.T) {
	l := cache.NewLoader[int](8)
	var computes atomic.Int32

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := l.GetOrCompute("k", func() (int, error) {
				computes.Add(1)
				return 42, nil
			})
			if err != nil || v != 42 {
				t.Errorf("GetOrCompute = %d, %v", v, err)
			}
		}()
	}
	wg.Wait()

	if got := computes.Load(); got != 1 {
		t.Errorf("compute ran %d times, want 1", got)
	}
}

func TestLoaderDoesNotCacheErrors(t *testing.T) {
	l := cache.NewLoader[int](8)
	boom := errors.New("boom")

	if _, err := l.GetOrCompute("k", func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	v, err := l.GetOrCompute("k", func() (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Errorf("second GetOrCompute = %d, %v", v, err)
	}
}
