package server

import (
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Fixed-window counter, atomic increment and expiry in one round trip.
var rateLimitScript = `
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])

local current = redis.call("INCR", key)
if current == 1 then
    redis.call("EXPIRE", key, window)
end

if current > limit then
    return 0
else
    return 1
end
`

// apiKeyMiddleware rejects requests missing the expected X-API-Key header.
func (s *Server) apiKeyMiddleware(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-API-Key") != key {
				s.respondError(w, http.StatusUnauthorized, "invalid api key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitMiddleware limits requests per client IP using a Redis fixed
// window. On Redis failure requests pass through.
func (s *Server) rateLimitMiddleware(limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			result, err := s.redis.Eval(r.Context(), rateLimitScript,
				[]string{"ratelimit:" + ip}, limit, int(window.Seconds())).Int()
			if err != nil {
				s.logger.Warn("rate limit check failed", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if result == 0 {
				s.respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
