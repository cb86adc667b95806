package middleware

import (
	"net/http"

	"linklist-backend/pkg/auth"
	"linklist-backend/pkg/common"

	"go.uber.org/zap"
)

// RateLimitWrites applies limiter to state changing requests, keyed by the
// authenticated user. Reads pass through untouched.
func RateLimitWrites(limiter *auth.UserRateLimiter, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isWrite(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			key, ok := common.GetUserID(r.Context())
			if !ok {
				key = "ip:" + getClientIP(r)
			}

			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				// fail open, the limiter is advisory
				logger.Warn("Rate limiter error", zap.String("key", key), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				logger.Info("Rate limit exceeded",
					zap.String("key", key),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
				)
				common.RespondError(w, http.StatusTooManyRequests,
					common.StandardErrorCodes.TooManyRequests, "Rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}
