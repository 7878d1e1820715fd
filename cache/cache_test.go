package cache

import (
	"testing"
	"time"

	"github.com/use-agent/scrapeconsole/engine"
)

func TestCacheGetSet(t *testing.T) {
	c := New(2, time.Minute)
	key := Key("https://venues.example.com/list?page=1")

	if _, ok := c.Get(key); ok {
		t.Fatal("empty cache should miss")
	}

	c.Set(key, &engine.FetchResult{HTML: "<p>one</p>", EngineName: "http"})
	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected hit")
	}
	if got.HTML != "<p>one</p>" || got.EngineName != "http" {
		t.Errorf("got %+v", got)
	}

	got.HTML = "mutated"
	again, _ := c.Get(key)
	if again.HTML != "<p>one</p>" {
		t.Error("cached entry was mutated through a returned copy")
	}

	hits, misses := c.Stats()
	if hits != 2 || misses != 1 {
		t.Errorf("stats: got %d/%d, want 2/1", hits, misses)
	}
}

func TestCacheEvictsOldest(t *testing.T) {
	c := New(2, time.Minute)
	c.Set("a", &engine.FetchResult{HTML: "a"})
	c.Set("b", &engine.FetchResult{HTML: "b"})
	c.Set("c", &engine.FetchResult{HTML: "c"})

	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry should be evicted")
	}
	if c.Len() != 2 {
		t.Errorf("len: got %d, want 2", c.Len())
	}
}

func TestCacheExpires(t *testing.T) {
	c := New(4, 20*time.Millisecond)
	c.Set("k", &engine.FetchResult{HTML: "x"})
	time.Sleep(60 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("entry should have expired")
	}
}

func TestNilCache(t *testing.T) {
	c := New(0, time.Minute)
	if c != nil {
		t.Fatal("New(0) should return nil")
	}
	c.Set("k", &engine.FetchResult{})
	if _, ok := c.Get("k"); ok {
		t.Error("nil cache should never hit")
	}
	if c.Len() != 0 {
		t.Error("nil cache should be empty")
	}
}

func TestKeyStable(t *testing.T) {
	if Key("u") != Key("u") {
		t.Error("Key is not deterministic")
	}
	if Key("u1") == Key("u2") {
		t.Error("different URLs share a key")
	}
}
