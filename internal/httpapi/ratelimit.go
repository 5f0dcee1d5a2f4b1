package httpapi

import (
	"sync"
	"time"
)

// rateLimiter caps requests per client IP within a fixed window. Login is
// the only guarded route; everything else is a single user's sync traffic.
type rateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientWindow

	limit  int
	window time.Duration
}

type clientWindow struct {
	windowStart time.Time
	requests    int
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		clients: make(map[string]*clientWindow),
		limit:   limit,
		window:  window,
	}
}

// allow reports whether a request from the given IP fits the current window.
func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	// Opportunistic pruning keeps the map bounded without a cleanup
	// goroutine; a single-user service never grows it far anyway.
	if len(rl.clients) > 1024 {
		for ip, c := range rl.clients {
			if now.Sub(c.windowStart) > rl.window {
				delete(rl.clients, ip)
			}
		}
	}

	c, ok := rl.clients[clientIP]
	if !ok || now.Sub(c.windowStart) > rl.window {
		rl.clients[clientIP] = &clientWindow{windowStart: now, requests: 1}
		return true
	}

	c.requests++
	return c.requests <= rl.limit
}
