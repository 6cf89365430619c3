package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/simp-lee/storeadmin/internal/pkg"
)

// RateLimitConfig holds the token bucket parameters applied per client IP.
//
// A loopback request whose request id belongs to a request this limiter
// already admitted, and which is still in flight, is not charged again. That
// is the dashboard's fetch from its own catalog API, forwarded with the
// caller's id; charging it would put every caller in the 127.0.0.1 bucket.
// The middleware must run after RequestIDWithConfig with TrustUpstream set.
type RateLimitConfig struct {
	RPS   float64
	Burst int
	// IdleTTL drops the bucket of a client that has been quiet this long.
	// Zero means ten minutes.
	IdleTTL time.Duration
}

const defaultLimiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiterStore struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	inFlight  map[string]int // admitted request ids still being served
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newLimiterStore(cfg RateLimitConfig) *limiterStore {
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = defaultLimiterIdleTTL
	}
	return &limiterStore{
		visitors: make(map[string]*visitor),
		inFlight: make(map[string]int),
		limit:    rate.Limit(cfg.RPS),
		burst:    cfg.Burst,
		idleTTL:  ttl,
		now:      time.Now,
	}
}

// allow reports whether key may proceed now.
func (s *limiterStore) allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) > s.idleTTL {
		for k, v := range s.visitors {
			if now.Sub(v.lastSeen) > s.idleTTL {
				delete(s.visitors, k)
			}
		}
		s.lastSweep = now
	}

	v, ok := s.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// enter reports whether requestID belongs to an admitted request still in
// flight. When it does, the request is counted as nested in that one.
func (s *limiterStore) enter(requestID string) bool {
	if requestID == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[requestID] == 0 {
		return false
	}
	s.inFlight[requestID]++
	return true
}

// admit charges key's bucket and, on success, marks requestID in flight.
func (s *limiterStore) admit(key, requestID string) bool {
	if !s.allow(key) {
		return false
	}
	if requestID != "" {
		s.mu.Lock()
		s.inFlight[requestID]++
		s.mu.Unlock()
	}
	return true
}

func (s *limiterStore) leave(requestID string) {
	if requestID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[requestID] <= 1 {
		delete(s.inFlight, requestID)
		return
	}
	s.inFlight[requestID]--
}

// RateLimit returns a gin middleware that applies a token bucket per client IP.
// Rejected requests get 429 with the standard envelope and a Retry-After header.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	store := newLimiterStore(cfg)
	retryAfter := strconv.Itoa(retryAfterSeconds(cfg.RPS))

	return func(c *gin.Context) {
		id := GetRequestID(c)
		nested := isLoopback(c.RemoteIP()) && store.enter(id)
		if nested || store.admit(c.ClientIP(), id) {
			defer store.leave(id)
			c.Next()
			return
		}
		c.Header("Retry-After", retryAfter)
		c.AbortWithStatusJSON(http.StatusTooManyRequests, pkg.Response{
			Status:  false,
			Message: "rate limit exceeded",
		})
	}
}

// isLoopback reports whether the TCP peer is this host. Forwarding headers
// are ignored on purpose: they are client controlled.
func isLoopback(remoteIP string) bool {
	ip := net.ParseIP(remoteIP)
	return ip != nil && ip.IsLoopback()
}

// retryAfterSeconds is the whole-second wait for one token to refill.
func retryAfterSeconds(rps float64) int {
	if rps <= 0 {
		return 1
	}
	return max(1, int(math.Ceil(1/rps)))
}
