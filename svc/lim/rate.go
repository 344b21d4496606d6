package lim

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"pastebox/svc/util"
)

const (
	maxLimiters     = 10000
	cleanupInterval = 5 * time.Minute
	limiterTTL      = 30 * time.Minute
)

// Limiter hands out one token bucket per client IP. Entries idle past
// limiterTTL are evicted by a background loop.
type Limiter struct {
	mu             sync.Mutex
	limiters       map[string]*limiterEntry
	rpm            int
	burst          int
	trustedProxies []string
	quit           chan struct{}
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
}

func New(rpm, burst int, trustedProxies []string) *Limiter {
	l := &Limiter{
		limiters:       make(map[string]*limiterEntry),
		rpm:            rpm,
		burst:          burst,
		trustedProxies: trustedProxies,
		quit:           make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

func (l *Limiter) Stop() {
	close(l.quit)
}

func (l *Limiter) Check(r *http.Request) Result {
	ip := GetRealIP(r, l.trustedProxies)
	l.mu.Lock()
	entry, ok := l.limiters[ip]
	if !ok {
		if len(l.limiters) >= maxLimiters {
			l.mu.Unlock()
			// table full, fail closed for unknown clients
			return Result{Allowed: false, Limit: l.rpm}
		}
		entry = &limiterEntry{
			limiter: rate.NewLimiter(rate.Limit(float64(l.rpm)/60.0), l.burst),
		}
		l.limiters[ip] = entry
	}
	entry.lastAccess = time.Now()
	l.mu.Unlock()
	allowed := entry.limiter.Allow()
	remaining := int(entry.limiter.Tokens())
	if remaining < 0 {
		remaining = 0
	}
	return Result{Allowed: allowed, Limit: l.rpm, Remaining: remaining}
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.evictIdle()
		case <-l.quit:
			return
		}
	}
}

func (l *Limiter) evictIdle() {
	now := time.Now()
	l.mu.Lock()
	evicted := 0
	for key, entry := range l.limiters {
		if now.Sub(entry.lastAccess) > limiterTTL {
			delete(l.limiters, key)
			evicted++
		}
	}
	remaining := len(l.limiters)
	l.mu.Unlock()
	if evicted > 0 {
		util.Debug().Int("evicted", evicted).Int("remaining", remaining).Msg("rate limiter cleanup")
	}
}

// GetRealIP trusts X-Forwarded-For only when the direct peer is a trusted
// proxy.
func GetRealIP(r *http.Request, trustedProxies []string) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}
	if len(trustedProxies) == 0 || !isTrusted(peer, trustedProxies) {
		return peer
	}
	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" {
		return peer
	}
	parts := strings.Split(xff, ",")
	ip := strings.TrimSpace(parts[0])
	if net.ParseIP(ip) == nil {
		return peer
	}
	return ip
}

func isTrusted(ip string, trustedProxies []string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, proxy := range trustedProxies {
		if strings.Contains(proxy, "/") {
			if _, cidr, err := net.ParseCIDR(proxy); err == nil && cidr.Contains(parsed) {
				return true
			}
		} else if proxy == ip {
			return true
		}
	}
	return false
}
