package resolver

import (
	"context"
	"sync"
	"time"

	"github.com/cadence-bot/cadence/filesystem"
	"github.com/cadence-bot/cadence/log"
	"github.com/cadence-bot/cadence/track"
	"github.com/metafates/gache"
)

type entry struct {
	Track track.Track `json:"track"`
	At    time.Time   `json:"at"`
}

type store interface {
	Get() (map[string]entry, bool, error)
	Set(map[string]entry) error
}

// Cached remembers resolutions on disk. Stream URLs expire upstream, so every
// entry is dropped once it is older than the lifetime.
type Cached struct {
	next     Resolver
	lifetime time.Duration
	now      func() time.Time
	mu       sync.Mutex
	cacher   store
}

// NewCached wraps next with a cache stored at path.
func NewCached(next Resolver, path string, lifetime time.Duration) *Cached {
	return &Cached{
		next:     next,
		lifetime: lifetime,
		now:      time.Now,
		cacher: gache.New[map[string]entry](&gache.Options{
			Path:       path,
			Lifetime:   lifetime,
			FileSystem: &filesystem.GacheFs{},
		}),
	}
}

func (c *Cached) fresh(e entry) bool {
	return c.now().Sub(e.At) < c.lifetime
}

func (c *Cached) Resolve(ctx context.Context, locator string) (track.Track, error) {
	c.mu.Lock()
	cached, expired, err := c.cacher.Get()
	c.mu.Unlock()

	if err == nil && !expired {
		if e, ok := cached[locator]; ok && c.fresh(e) {
			log.Debugf("resolver cache hit for %s", locator)
			return e.Track, nil
		}
	}

	t, err := c.next.Resolve(ctx, locator)
	if err != nil {
		return t, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cached, expired, err = c.cacher.Get()
	if err != nil || expired || cached == nil {
		cached = make(map[string]entry)
	}
	for k, e := range cached {
		if !c.fresh(e) {
			delete(cached, k)
		}
	}
	cached[locator] = entry{Track: t, At: c.now()}
	if err := c.cacher.Set(cached); err != nil {
		log.Warnf("save resolver cache: %s", err)
	}
	return t, nil
}
