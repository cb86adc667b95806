package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"linklist-backend/pkg/auth"
	"linklist-backend/pkg/common"
	"linklist-backend/pkg/observability"

	"github.com/aws/aws-lambda-go/events"
	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const secret = "middleware-secret"

// whoami echoes the authenticated caller
func whoami(w http.ResponseWriter, r *http.Request) {
	caller, ok := common.CallerFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	w.Header().Set("X-Caller", caller.UserID)
	w.Header().Set("X-Caller-Name", caller.Username)
	if caller.IsAdmin() {
		w.Header().Set("X-Caller-Admin", "true")
	}
	w.WriteHeader(http.StatusOK)
}

func authenticated(t *testing.T, trust bool) http.Handler {
	t.Helper()
	validator, err := auth.NewJWTValidator(auth.JWTConfig{SigningMethod: "HS256", SecretKey: secret})
	require.NoError(t, err)
	return Authenticate(AuthConfig{Validator: validator, TrustIdentityHeader: trust}, zap.NewNop())(http.HandlerFunc(whoami))
}

func TestAuthenticate_BearerAndCookie(t *testing.T) {
	handler := authenticated(t, false)
	token, err := auth.NewJWTGenerator(secret, "", time.Hour).GenerateToken("u1", "alice", []string{"admin"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", rec.Header().Get("X-Caller"))
	assert.Equal(t, "alice", rec.Header().Get("X-Caller-Name"))
	assert.Equal(t, "true", rec.Header().Get("X-Caller-Admin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: token})
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "u1", rec.Header().Get("X-Caller"))
}

func TestAuthenticate_Rejects(t *testing.T) {
	handler := authenticated(t, false)
	expired, _ := auth.NewJWTGenerator(secret, "", -time.Minute).GenerateToken("u1", "", nil)

	cases := map[string]string{
		"Basic dXNlcjpwYXNz": "Missing authorization token",
		"Bearer " + expired:  "Token has expired",
		"Bearer nonsense":    "Invalid token",
	}
	for header, message := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
		assert.Contains(t, rec.Body.String(), message, header)
	}
}

type wrappingValidator struct{ err error }

func (v wrappingValidator) ValidateToken(string) (*auth.Claims, error) {
	return nil, fmt.Errorf("upstream validator: %w", v.err)
}

func TestAuthenticate_WrappedValidatorErrors(t *testing.T) {
	cases := map[error]string{
		auth.ErrExpiredToken:     "Token has expired",
		auth.ErrInvalidSignature: "Invalid token signature",
		auth.ErrInvalidClaims:    "Invalid token",
	}
	for cause, message := range cases {
		handler := Authenticate(AuthConfig{Validator: wrappingValidator{err: cause}}, zap.NewNop())(http.HandlerFunc(whoami))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer anything")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, cause.Error())
		assert.Contains(t, rec.Body.String(), message, cause.Error())
	}
}

func TestAuthenticate_TrustedHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderUserID, "u7")
	req.Header.Set(HeaderUsername, "grace")
	req.Header.Set(HeaderUserRoles, "AdminUser")

	rec := httptest.NewRecorder()
	authenticated(t, true).ServeHTTP(rec, req)
	assert.Equal(t, "u7", rec.Header().Get("X-Caller"))
	assert.Equal(t, "true", rec.Header().Get("X-Caller-Admin"))

	rec = httptest.NewRecorder()
	authenticated(t, false).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_LambdaAuthorizer(t *testing.T) {
	event := events.APIGatewayV2HTTPRequest{
		RawPath: "/api/v1/notifications",
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			DomainName: "api.example.com",
			HTTP:       events.APIGatewayV2HTTPRequestContextHTTPDescription{Method: http.MethodGet},
			Authorizer: &events.APIGatewayV2HTTPRequestContextAuthorizerDescription{
				JWT: &events.APIGatewayV2HTTPRequestContextAuthorizerJWTDescription{
					Claims: map[string]string{
						"sub":              "cognito-1",
						"cognito:username": "linus",
						"cognito:groups":   "[user admin]",
					},
				},
			},
		},
	}
	req, err := (&core.RequestAccessorV2{}).EventToRequestWithContext(context.Background(), event)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	authenticated(t, false).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cognito-1", rec.Header().Get("X-Caller"))
	assert.Equal(t, "linus", rec.Header().Get("X-Caller-Name"))
	assert.Equal(t, "true", rec.Header().Get("X-Caller-Admin"))
}

func TestSplitRoles(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitRoles("a,b"))
	assert.Equal(t, []string{"a", "b"}, splitRoles("[a b]"))
	assert.Empty(t, splitRoles(""))
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	assert.Equal(t, "10.0.0.1", getClientIP(req))
}

func TestRateLimitWrites_Anonymous(t *testing.T) {
	limiter := auth.NewUserRateLimiter(auth.NewTokenBucketLimiter(0.001, 1))
	handler := RateLimitWrites(limiter, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusNoContent, post())
	assert.Equal(t, http.StatusTooManyRequests, post(), "anonymous writes are keyed by address")
}

func TestMetrics_RoutePattern(t *testing.T) {
	collector := observability.NewCollector("test")
	router := chi.NewRouter()
	router.Use(Metrics(collector))
	router.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	for _, id := range []string{"a", "b"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
	}

	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `test_http_requests_total{method="GET",route="/items/{id}",status="202"} 2`)
}

func TestLogger_LevelsByStatus(t *testing.T) {
	sink, logs := observer.New(zapcore.DebugLevel)
	router := chi.NewRouter()
	router.Use(Logger(zap.New(sink)))
	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {})
	router.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch chi.URLParam(r, "id") {
		case "missing":
			w.WriteHeader(http.StatusNotFound)
		case "broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			_, _ = w.Write([]byte("ok"))
		}
	})

	for _, path := range []string{"/health", "/items/1", "/items/missing", "/items/broken"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, int64(http.StatusOK), entries[0].ContextMap()["status"])
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, "/items/{id}", entries[1].ContextMap()["route"])
	assert.Equal(t, int64(2), entries[1].ContextMap()["bytes"])
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}
