package web

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/JonMunkholm/qualityfeed/internal/core"
)

// rateLimiter allows limit requests per client in each fixed window.
// Clients are keyed by host; TrustedRealIP has already resolved proxies.
type rateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	clients map[string]*windowCount

	done chan struct{}
	once sync.Once
}

type windowCount struct {
	start time.Time
	n     int
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		clients: make(map[string]*windowCount),
		done:    make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// allow counts one request for client and reports whether it fits, plus
// how long until the client's window resets.
func (rl *rateLimiter) allow(client string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	wc, ok := rl.clients[client]
	if !ok || now.Sub(wc.start) >= rl.window {
		rl.clients[client] = &windowCount{start: now, n: 1}
		return true, rl.window
	}
	remaining := rl.window - now.Sub(wc.start)
	if wc.n >= rl.limit {
		return false, remaining
	}
	wc.n++
	return true, remaining
}

// sweep drops clients idle for two windows until Stop.
func (rl *rateLimiter) sweep() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			cutoff := rl.now().Add(-2 * rl.window)
			rl.mu.Lock()
			for c, wc := range rl.clients {
				if wc.start.Before(cutoff) {
					delete(rl.clients, c)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Stop ends the sweeper. Safe to call more than once.
func (rl *rateLimiter) Stop() {
	rl.once.Do(func() { close(rl.done) })
}

// Middleware rejects over-limit clients with 429 and a Retry-After header.
func (rl *rateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, reset := rl.allow(clientKey(r.RemoteAddr))
		if !ok {
			secs := int(reset.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			respondErrorJSON(w, core.UserMessage{
				Message: "Too many requests",
				Action:  "Please wait and try again",
				Code:    "RATE001",
			}, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
