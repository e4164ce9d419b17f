package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vinco/vinco-backend/api/responses"
	"github.com/vinco/vinco-backend/pkg/config"
	pkgerrors "github.com/vinco/vinco-backend/pkg/errors"
	"github.com/vinco/vinco-backend/pkg/logger"
	pkgredis "github.com/vinco/vinco-backend/pkg/redis"
)

type windowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (pkgredis.WindowResult, error)
}

// RateLimitPolicy names a fixed-window budget. Per-path policies count each
// (ip, path) pair separately.
type RateLimitPolicy struct {
	name    string
	rate    config.Rate
	perPath bool
}

// LoginRateLimitPolicy throttles credential attempts per client IP.
func LoginRateLimitPolicy(rate config.Rate) RateLimitPolicy {
	return RateLimitPolicy{name: "login", rate: rate}
}

// RegisterRateLimitPolicy throttles sign-ups per client IP with its own
// counter so registrations never spend the login budget.
func RegisterRateLimitPolicy(rate config.Rate) RateLimitPolicy {
	return RateLimitPolicy{name: "register", rate: rate}
}

// ViewRateLimitPolicy throttles authenticated API calls per client IP and path.
func ViewRateLimitPolicy(rate config.Rate) RateLimitPolicy {
	return RateLimitPolicy{name: "view", rate: rate, perPath: true}
}

func (p RateLimitPolicy) enabled() bool {
	return p.rate.Limit > 0 && p.rate.Window > 0
}

func (p RateLimitPolicy) scope(r *http.Request, ip string) string {
	if p.perPath {
		return p.name + ":" + ip + ":" + r.URL.Path
	}
	return p.name + ":" + ip
}

// RateLimit enforces the policy. When the counter store fails the request is
// let through and a warning is logged.
func RateLimit(policy RateLimitPolicy, limiter windowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := clientIP(r)
			if ip == "" {
				next.ServeHTTP(w, r)
				return
			}

			result, err := limiter.FixedWindowAllow(ctx, policy.scope(r, ip), int64(policy.rate.Limit), policy.rate.Window)
			if err != nil {
				if logg != nil {
					logCtx := logg.WithFields(ctx, map[string]any{"policy": policy.name, "error": err.Error()})
					logg.Warn(logCtx, "rate_limit.unavailable")
				}
				next.ServeHTTP(w, r)
				return
			}
			if !result.Allowed {
				respondRateLimited(ctx, logg, w, policy, ip, result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func respondRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy RateLimitPolicy, ip string, result pkgredis.WindowResult) {
	retryAfter := result.RetryAfter
	if retryAfter <= 0 {
		retryAfter = policy.rate.Window
	}
	seconds := int(math.Ceil(retryAfter.Seconds()))
	if logg != nil {
		logCtx := logg.WithFields(ctx, map[string]any{
			"policy":              policy.name,
			"ip":                  ip,
			"attempts":            result.Count,
			"limit":               policy.rate.Limit,
			"retry_after_seconds": seconds,
		})
		logg.Warn(logCtx, "rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
