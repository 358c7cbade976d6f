// Package ratelimit holds token-bucket limiters keyed by caller.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// KeyLimiter rate-limits per key (client host, relay id).
type KeyLimiter struct {
	mu sync.Mutex
	m  map[string]*rate.Limiter
	r  rate.Limit
	b  int
}

func NewKeyLimiter(reqPerSec float64, burst int) *KeyLimiter {
	return &KeyLimiter{
		m: make(map[string]*rate.Limiter),
		r: rate.Limit(reqPerSec),
		b: burst,
	}
}

func (kl *KeyLimiter) limiterFor(key string) *rate.Limiter {
	if key == "" {
		key = "_"
	}
	kl.mu.Lock()
	defer kl.mu.Unlock()

	if lim, ok := kl.m[key]; ok {
		return lim
	}
	lim := rate.NewLimiter(kl.r, kl.b)
	kl.m[key] = lim
	return lim
}

// Allow reports whether one more event for key may happen now.
func (kl *KeyLimiter) Allow(key string) bool {
	return kl.limiterFor(key).Allow()
}

func (kl *KeyLimiter) Wait(ctx context.Context, key string) error {
	return kl.limiterFor(key).Wait(ctx)
}

// SetLimit changes the rate for new and existing keys.
func (kl *KeyLimiter) SetLimit(reqPerSec float64, burst int) {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	r := rate.Limit(reqPerSec)
	if r == kl.r && burst == kl.b {
		return
	}
	kl.r, kl.b = r, burst
	for _, lim := range kl.m {
		lim.SetLimit(r)
		lim.SetBurst(burst)
	}
}
