package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vendorbridge/backoffice-backend/api/responses"
	pkgerrors "github.com/vendorbridge/backoffice-backend/pkg/errors"
	"github.com/vendorbridge/backoffice-backend/pkg/logger"
)

// RateLimiterStore is the counter backend for the public throttles.
type RateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// PublicRateLimitPolicy defines the throttling parameters for the
// unauthenticated proof approval surface.
type PublicRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	tokenLimit int
}

// NewPublicRateLimitPolicy builds a policy with the supplied window and limits.
func NewPublicRateLimitPolicy(name string, window time.Duration, ipLimit, tokenLimit int) PublicRateLimitPolicy {
	return PublicRateLimitPolicy{
		name:       strings.ToLower(strings.TrimSpace(name)),
		window:     window,
		ipLimit:    ipLimit,
		tokenLimit: tokenLimit,
	}
}

func (p PublicRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.tokenLimit > 0)
}

func (p PublicRateLimitPolicy) normalizedName() string {
	if p.name == "" {
		return "public"
	}
	return p.name
}

func (p PublicRateLimitPolicy) ipKey(ip string) string {
	if ip == "" {
		return ""
	}
	return fmt.Sprintf("rl:ip:%s:%s", p.normalizedName(), ip)
}

func (p PublicRateLimitPolicy) tokenKey(hash string) string {
	if hash == "" {
		return ""
	}
	return fmt.Sprintf("rl:token:%s:%s", p.normalizedName(), hash)
}

// PublicRateLimit enforces per-IP and per-token counters for the public
// proof endpoints. Approval tokens are guessable only by brute force, so
// both dimensions are throttled before the handler sees the request.
func PublicRateLimit(policy PublicRateLimitPolicy, store RateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ip := clientIP(r)
			if policy.ipLimit > 0 {
				if key := policy.ipKey(ip); key != "" {
					if allowed, count, err := allow(ctx, store, key, policy.window, int64(policy.ipLimit)); err != nil {
						responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
						return
					} else if !allowed {
						respondRateLimited(ctx, logg, w, policy, "ip", ip, "", count, policy.ipLimit)
						return
					}
				}
			}

			if policy.tokenLimit > 0 {
				if token := strings.TrimSpace(chi.URLParam(r, "token")); token != "" {
					hash := hashValue(token)
					if key := policy.tokenKey(hash); key != "" {
						if allowed, count, err := allow(ctx, store, key, policy.window, int64(policy.tokenLimit)); err != nil {
							responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
							return
						} else if !allowed {
							respondRateLimited(ctx, logg, w, policy, "token", "", hash, count, policy.tokenLimit)
							return
						}
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func allow(ctx context.Context, store RateLimiterStore, key string, window time.Duration, limit int64) (bool, int64, error) {
	count, err := store.IncrWithTTL(ctx, key, window)
	if err != nil {
		return false, 0, err
	}
	return count <= limit, count, nil
}

func respondRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy PublicRateLimitPolicy, scope, ip, tokenHash string, count int64, limit int) {
	if logg != nil {
		fields := map[string]any{
			"scope":          scope,
			"policy":         policy.normalizedName(),
			"attempts":       count,
			"limit":          limit,
			"window_seconds": int(policy.window.Seconds()),
		}
		if ip != "" {
			fields["ip"] = ip
		}
		if tokenHash != "" {
			fields["token_hash"] = tokenHash
		}
		logCtx := logg.WithFields(ctx, fields)
		logg.Warn(logCtx, "public.rate_limit.blocked")
	}
	err := pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded")
	responses.WriteError(ctx, nil, w, err)
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

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
