package cache_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sandrolain/gofhirpath/pkg/cache"
	"github.com/sandrolain/gofhirpath/pkg/parser"
	"github.com/sandrolain/gofhirpath/pkg/types"
)

func mustCompile(t *testing.T, query string) *types.Expression {
	t.Helper()
	expr, err := parser.Compile(query)
	if err != nil {
		t.Fatalf("Compile(%q): %v", query, err)
	}
	return expr
}

func TestCacheDefaultCapacity(t *testing.T) {
	c := cache.New(0)
	if got := c.Capacity(); got != 256 {
		t.Fatalf("expected default capacity 256, got %d", got)
	}
	if got := c.Len(); got != 0 {
		t.Fatalf("expected empty cache, got %d", got)
	}
}

func TestCacheSetGet(t *testing.T) {
	c := cache.New(4)
	expr := mustCompile(t, "Patient.name")
	c.Set("Patient.name", expr)
	got, ok := c.Get("Patient.name")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != expr {
		t.Fatal("expected same expression pointer")
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected cache miss")
	}
}

func TestCacheLRUEviction(t *testing.T) {
	c := cache.New(3)
	for _, k := range []string{"a", "b", "c"} {
		c.Set(k, mustCompile(t, k))
	}
	// touch "a" so "b" becomes the least recently used
	if _, ok := c.Get("a"); !ok {
		t.Fatal(`expected "a" to be present`)
	}
	c.Set("d", mustCompile(t, "d"))

	if got := c.Len(); got != 3 {
		t.Fatalf("expected 3 entries after eviction, got %d", got)
	}
	if _, ok := c.Get("b"); ok {
		t.Fatal(`expected "b" to be evicted`)
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, ok := c.Get(k); !ok {
			t.Fatalf("expected %q to survive", k)
		}
	}
}

func TestCacheInvalidateAndClear(t *testing.T) {
	c := cache.New(4)
	c.Set("k", mustCompile(t, "k"))
	c.Set("j", mustCompile(t, "j"))
	c.Invalidate("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after Invalidate")
	}
	c.Clear()
	if got := c.Len(); got != 0 {
		t.Fatalf("expected 0 after Clear, got %d", got)
	}
}

func TestCacheGetOrCompile(t *testing.T) {
	c := cache.New(4)
	calls := 0
	compile := func() (*types.Expression, error) {
		calls++
		return parser.Compile("name.given")
	}

	expr1, err := c.GetOrCompile("name.given", compile)
	if err != nil {
		t.Fatalf("first GetOrCompile: %v", err)
	}
	expr2, err := c.GetOrCompile("name.given", compile)
	if err != nil {
		t.Fatalf("second GetOrCompile: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 compile call, got %d", calls)
	}
	if expr1 != expr2 {
		t.Fatal("expected same pointer from cache")
	}

	want := cache.Stats{Hits: 1, Misses: 1, Len: 1}
	if diff := cmp.Diff(want, c.Stats()); diff != "" {
		t.Errorf("Stats() mismatch (-want +got):\n%s", diff)
	}
}

func TestCacheGetOrCompileError(t *testing.T) {
	c := cache.New(4)
	_, err := c.GetOrCompile("a +", func() (*types.Expression, error) {
		return parser.Compile("a +")
	})
	if !errors.Is(err, types.ErrSyntax) {
		t.Fatalf("expected syntax error, got %v", err)
	}
	if c.Len() != 0 {
		t.Fatal("errors must not be cached")
	}
}

func TestCacheConcurrent(t *testing.T) {
	c := cache.New(8)
	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			query := fmt.Sprintf("identifier[%d]", i%12)
			expr, err := c.GetOrCompile(query, func() (*types.Expression, error) {
				return parser.Compile(query)
			})
			if err != nil {
				t.Errorf("GetOrCompile(%q): %v", query, err)
				return
			}
			if expr.Source() != query {
				t.Errorf("got expression %q for key %q", expr.Source(), query)
			}
		}()
	}
	wg.Wait()
	if c.Len() > c.Capacity() {
		t.Fatalf("cache grew past capacity: %d > %d", c.Len(), c.Capacity())
	}
}
