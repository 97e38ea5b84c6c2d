package cache

import (
	"context"
	"encoding/json"
	"time"
)

// GetOrLoadJSON is GetOrLoad for JSON-encodable values. A cached entry that no
// longer decodes into T (e.g. after a struct change) is dropped, reloaded and
// cached again.
func GetOrLoadJSON[T any](c *Cache, ctx context.Context, key string, ttl time.Duration,
	load func(context.Context) (*T, error),
) (*T, error) {
	var loaded *T
	raw, err := c.GetOrLoad(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		loaded = v
		return json.Marshal(v)
	})
	if err != nil {
		return nil, err
	}
	if loaded != nil {
		return loaded, nil
	}

	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		c.Delete(ctx, key)
		// the retry always takes the load path above, so it cannot loop
		return GetOrLoadJSON(c, ctx, key, ttl, load)
	}
	return out, nil
}
