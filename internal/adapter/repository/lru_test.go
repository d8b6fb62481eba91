package repository

import (
	"testing"

	"github.com/nii-geonlp/geonlp-go/internal/entity"
)

func TestGeowordCacheMissThenHit(t *testing.T) {
	c := newGeowordCache(2)

	if _, _, inCache := c.get("geonlp:tokyo"); inCache {
		t.Fatalf("expected a miss before the first set")
	}

	c.set("geonlp:tokyo", entity.Geoword{GeonlpID: "geonlp:tokyo", Body: "東京"}, true)

	g, found, inCache := c.get("geonlp:tokyo")
	if !inCache || !found {
		t.Fatalf("get() after set = inCache=%v found=%v, want true/true", inCache, found)
	}
	if g.Body != "東京" {
		t.Errorf("cached value body = %q, want 東京", g.Body)
	}
}

func TestGeowordCacheClearsWhollyOnOverflow(t *testing.T) {
	c := newGeowordCache(2)
	c.set("a", entity.Geoword{GeonlpID: "a"}, true)
	c.set("b", entity.Geoword{GeonlpID: "b"}, true)

	// touch "a" so it would survive a single-entry LRU eviction; the
	// wholesale-clear policy drops it anyway once capacity overflows.
	c.get("a")

	c.set("c", entity.Geoword{GeonlpID: "c"}, true)

	if _, _, inCache := c.get("a"); inCache {
		t.Errorf("expected a to be cleared along with the rest of the cache on overflow")
	}
	if _, _, inCache := c.get("b"); inCache {
		t.Errorf("expected b to be cleared along with the rest of the cache on overflow")
	}
	if _, _, inCache := c.get("c"); !inCache {
		t.Errorf("expected c, the insert that triggered the overflow, to be present")
	}
}

func TestGeowordCacheCachesNegativeLookups(t *testing.T) {
	c := newGeowordCache(2)
	c.set("missing", entity.Geoword{}, false)

	_, found, inCache := c.get("missing")
	if !inCache {
		t.Fatalf("expected a cached negative lookup to still be a cache hit")
	}
	if found {
		t.Errorf("found = true for a cached miss, want false")
	}
}

func TestGeowordCachePurge(t *testing.T) {
	c := newGeowordCache(2)
	c.set("a", entity.Geoword{GeonlpID: "a"}, true)
	c.purge()

	if _, _, inCache := c.get("a"); inCache {
		t.Errorf("expected purge to clear all cached entries")
	}
}

func TestGeowordCacheSetOverwritesExisting(t *testing.T) {
	c := newGeowordCache(2)
	c.set("a", entity.Geoword{GeonlpID: "a", Body: "旧"}, true)
	c.set("a", entity.Geoword{GeonlpID: "a", Body: "新"}, true)

	g, _, _ := c.get("a")
	if g.Body != "新" {
		t.Errorf("overwriting an existing key should replace its cached value, got %q", g.Body)
	}
}
