package repository

import (
	"container/list"

	"github.com/nii-geonlp/geonlp-go/internal/entity"
)

// geowordCache is a fixed-capacity cache over geonlp_id -> cached lookup
// result: a hit never reruns the SQL scan+JSON decode path, but returns
// the identical entity.Geoword a miss would compute. container/list
// tracks recency for get, but nothing is evicted entry by entry: an
// insert that would push the cache past capacity first clears the whole
// cache and then stores the new entry.
type geowordCache struct {
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

type cacheEntry struct {
	key   string
	value cachedGeoword
}

type cachedGeoword struct {
	found bool
	value entity.Geoword
}

func newGeowordCache(capacity int) *geowordCache {
	return &geowordCache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// get reports (value, found, inCache). inCache false means the caller
// must run the underlying lookup and populate the cache via set.
func (c *geowordCache) get(key string) (entity.Geoword, bool, bool) {
	el, ok := c.items[key]
	if !ok {
		return entity.Geoword{}, false, false
	}
	c.ll.MoveToFront(el)
	entry := el.Value.(*cacheEntry)
	return entry.value.value, entry.value.found, true
}

func (c *geowordCache) set(key string, value entity.Geoword, found bool) {
	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		el.Value.(*cacheEntry).value = cachedGeoword{found: found, value: value}
		return
	}
	if c.ll.Len() >= c.capacity {
		c.purge()
	}
	el := c.ll.PushFront(&cacheEntry{key: key, value: cachedGeoword{found: found, value: value}})
	c.items[key] = el
}

func (c *geowordCache) purge() {
	c.ll.Init()
	c.items = make(map[string]*list.Element, c.capacity)
}
