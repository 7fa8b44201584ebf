package spotify

import (
	"context"
	"sync"
	"time"
)

// tokenHolder caches an access token until its deadline. Expiry alone
// cannot be trusted, so callers also invalidate on a 401 and fetch again.
type tokenHolder struct {
	mu      sync.Mutex
	value   string
	expires time.Time
}

func (h *tokenHolder) get(ctx context.Context, fetch func(context.Context) (string, time.Duration, error)) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.value != "" && time.Now().Before(h.expires) {
		return h.value, nil
	}

	value, ttl, err := fetch(ctx)
	if err != nil {
		return "", err
	}
	h.value = value
	h.expires = time.Now().Add(ttl)
	return h.value, nil
}

func (h *tokenHolder) invalidate() {
	h.mu.Lock()
	h.value = ""
	h.expires = time.Time{}
	h.mu.Unlock()
}
