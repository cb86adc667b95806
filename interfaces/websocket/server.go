package websocket

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"linklist-backend/pkg/auth"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// IdentityHeader carries the caller's user id when a trusted proxy has
// already authenticated the request.
const IdentityHeader = "X-User-Id"

var errNoIdentity = errors.New("no authentication token provided")

// ServerConfig holds WebSocket server configuration
type ServerConfig struct {
	ReadBufferSize      int
	WriteBufferSize     int
	AllowedOrigins      []string // empty allows any origin
	MaxConnsPerUser     int
	TrustIdentityHeader bool
}

// DefaultServerConfig returns default WebSocket server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		MaxConnsPerUser: 10,
	}
}

// Server upgrades authenticated requests and hands the connections to the
// registry.
type Server struct {
	registry  *Registry
	validator auth.TokenValidator
	upgrader  websocket.Upgrader
	config    ServerConfig
	logger    *zap.Logger
}

// NewServer creates a websocket endpoint. validator may be nil when only
// the trusted identity header is used.
func NewServer(registry *Registry, validator auth.TokenValidator, config ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		registry:  registry,
		validator: validator,
		config:    config,
		logger:    logger,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  config.ReadBufferSize,
		WriteBufferSize: config.WriteBufferSize,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.config.AllowedOrigins) == 0 || slices.Contains(s.config.AllowedOrigins, "*") {
		return true
	}
	return slices.Contains(s.config.AllowedOrigins, r.Header.Get("Origin"))
}

// HandleWebSocket serves GET /ws/notifications
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, err := s.authenticate(r)
	if err != nil {
		s.logger.Warn("WebSocket authentication failed",
			zap.Error(err),
			zap.String("remoteAddr", r.RemoteAddr),
		)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if s.config.MaxConnsPerUser > 0 && s.registry.ConnectionsOf(userID) >= s.config.MaxConnsPerUser {
		s.logger.Warn("Connection limit exceeded for user", zap.String("userID", userID))
		http.Error(w, "Connection limit exceeded", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		s.logger.Warn("Failed to upgrade connection", zap.Error(err), zap.String("remoteAddr", r.RemoteAddr))
		return
	}

	client := newClient(userID, s.registry, conn, s.logger)
	if client.start() {
		s.logger.Info("New WebSocket connection established",
			zap.String("userID", userID),
			zap.String("connectionID", client.ID()),
		)
	}
}

// authenticate resolves the caller from the trusted header or from a JWT in
// the token query parameter, the Authorization header, or the auth_token
// cookie, in that order.
func (s *Server) authenticate(r *http.Request) (string, error) {
	if s.config.TrustIdentityHeader {
		if userID := strings.TrimSpace(r.Header.Get(IdentityHeader)); userID != "" {
			return userID, nil
		}
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if token == "" {
		if cookie, err := r.Cookie("auth_token"); err == nil {
			token = cookie.Value
		}
	}
	if token == "" || s.validator == nil {
		return "", errNoIdentity
	}

	claims, err := s.validator.ValidateToken(token)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}
