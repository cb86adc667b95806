package middleware

import (
	"errors"
	"net/http"
	"strings"

	"linklist-backend/pkg/auth"
	"linklist-backend/pkg/common"

	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"go.uber.org/zap"
)

// Identity headers set by a trusted upstream, such as a gateway that already
// validated the token
const (
	HeaderUserID    = "X-User-Id"
	HeaderUsername  = "X-Username"
	HeaderUserRoles = "X-User-Roles"
)

// AuthConfig configures Authenticate
type AuthConfig struct {
	Validator           auth.TokenValidator
	TrustIdentityHeader bool
}

// Authenticate resolves the caller of every request and stores it on the
// context. Identity is taken, in order, from a Lambda JWT authorizer, from
// the identity headers when they are trusted, and from a bearer token.
func Authenticate(cfg AuthConfig, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, username, roles, ok := fromLambdaAuthorizer(r); ok {
				next.ServeHTTP(w, r.WithContext(common.WithIdentity(r.Context(), userID, username, roles)))
				return
			}

			if cfg.TrustIdentityHeader {
				if userID := strings.TrimSpace(r.Header.Get(HeaderUserID)); userID != "" {
					roles := splitRoles(r.Header.Get(HeaderUserRoles))
					ctx := common.WithIdentity(r.Context(), userID, r.Header.Get(HeaderUsername), roles)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			token := extractToken(r)
			if token == "" {
				respondUnauthorized(w, "Missing authorization token")
				return
			}
			if cfg.Validator == nil {
				logger.Error("Bearer token received but no validator is configured")
				respondUnauthorized(w, "Authentication system error")
				return
			}

			claims, err := cfg.Validator.ValidateToken(token)
			if err != nil {
				logger.Debug("Token rejected",
					zap.Error(err),
					zap.String("path", r.URL.Path),
					zap.String("remoteAddr", getClientIP(r)),
				)
				switch {
				case errors.Is(err, auth.ErrExpiredToken):
					respondUnauthorized(w, "Token has expired")
				case errors.Is(err, auth.ErrInvalidSignature):
					respondUnauthorized(w, "Invalid token signature")
				default:
					respondUnauthorized(w, "Invalid token")
				}
				return
			}

			ctx := common.WithIdentity(r.Context(), claims.UserID, claims.Name(), claims.AllRoles())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// fromLambdaAuthorizer reads the identity an API Gateway authorizer attached
// to the proxied event, from a Lambda authorizer context or from JWT claims.
// It only matches requests served through the chi Lambda adapter.
func fromLambdaAuthorizer(r *http.Request) (string, string, []string, bool) {
	reqCtx, ok := core.GetAPIGatewayV2ContextFromContext(r.Context())
	if !ok || reqCtx.Authorizer == nil {
		return "", "", nil, false
	}

	claims := make(map[string]string)
	if reqCtx.Authorizer.JWT != nil {
		for k, v := range reqCtx.Authorizer.JWT.Claims {
			claims[k] = v
		}
	}
	for k, v := range reqCtx.Authorizer.Lambda {
		if s, ok := v.(string); ok {
			claims[k] = s
		}
	}

	userID := claims["sub"]
	if userID == "" {
		return "", "", nil, false
	}

	username := claims["username"]
	if username == "" {
		username = claims["cognito:username"]
	}
	roles := splitRoles(claims["cognito:groups"])
	roles = append(roles, splitRoles(claims["roles"])...)
	return userID, username, roles, true
}

// splitRoles accepts "a,b", "a b" and the "[a b]" form API Gateway uses for
// list claims
func splitRoles(raw string) []string {
	raw = strings.Trim(strings.TrimSpace(raw), "[]")
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' '
	})
}

// extractToken looks for a token in the Authorization header, then the
// auth_token cookie
func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}
	return ""
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	common.RespondError(w, http.StatusUnauthorized, common.StandardErrorCodes.Unauthorized, message)
}
