package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment names
const (
	Development = "development"
	Staging     = "staging"
	Production  = "production"
)

// Storage backends
const (
	StorageDynamoDB = "dynamodb"
	StorageBadger   = "badger"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress   string        `yaml:"server_address"`
	Environment     string        `yaml:"environment"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Storage
	StorageBackend string `yaml:"storage_backend"`
	BadgerPath     string `yaml:"badger_path"`
	LegacyVoteScan bool   `yaml:"legacy_vote_scan"` // scan for votes stored before the entity partition layout

	// AWS configuration
	AWSRegion        string `yaml:"aws_region"`
	DynamoDBTable    string `yaml:"table_name"`
	GSI1IndexName    string `yaml:"gsi1_index_name"` // comments by entity, notifications by recipient
	GSI2IndexName    string `yaml:"gsi2_index_name"` // replies by parent
	EventBusName     string `yaml:"event_bus_name"`
	ConnectionsTable string `yaml:"connections_table"`
	DynamoDBEndpoint string `yaml:"dynamodb_endpoint"`

	// Lambda configuration
	IsLambda           bool   `yaml:"is_lambda"`
	LambdaFunctionName string `yaml:"-"`

	// WebSocket configuration
	WebSocketEndpoint   string        `yaml:"websocket_endpoint"`
	TrustIdentityHeader bool          `yaml:"trust_identity_header"`
	ConnectionTTL       time.Duration `yaml:"connection_ttl"`

	// Engagement rules
	CommentTreeLimit int `yaml:"comment_tree_limit"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LogFile   string `yaml:"log_file"`

	// Authentication
	JWTSecret    string `yaml:"-"`
	JWTIssuer    string `yaml:"jwt_issuer"`
	JWTPublicKey string `yaml:"-"`

	// Rate limiting of writes, per user
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`

	// Push relay
	RelayQueueSize int `yaml:"relay_queue_size"`

	// Feature flags
	EnableMetrics bool     `yaml:"enable_metrics"`
	EnableTracing bool     `yaml:"enable_tracing"`
	EnableCORS    bool     `yaml:"enable_cors"`
	AllowOrigins  []string `yaml:"allow_origins"`

	// ConfigFile is the YAML overlay this config was loaded with, if any
	ConfigFile string `yaml:"-"`
}

// LoadConfig loads configuration from environment variables, then applies
// the YAML file named by CONFIG_FILE on top when it is set.
func LoadConfig() (*Config, error) {
	cfg := fromEnv()

	if cfg.ConfigFile != "" {
		if err := cfg.applyFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

func fromEnv() *Config {
	return &Config{
		ServerAddress:   getEnv("SERVER_ADDRESS", ":8080"),
		Environment:     getEnv("ENVIRONMENT", Development),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),

		StorageBackend: getEnv("STORAGE_BACKEND", StorageDynamoDB),
		BadgerPath:     getEnv("BADGER_PATH", "./data/badger"),
		LegacyVoteScan: getEnvBool("LEGACY_VOTE_SCAN", false),

		AWSRegion:        getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable:    getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", "linklist")),
		GSI1IndexName:    getEnv("GSI1_INDEX_NAME", "GSI1"),
		GSI2IndexName:    getEnv("GSI2_INDEX_NAME", "GSI2"),
		EventBusName:     getEnv("EVENT_BUS_NAME", "linklist-events"),
		ConnectionsTable: getEnv("CONNECTIONS_TABLE", "linklist-connections"),
		DynamoDBEndpoint: getEnv("DYNAMODB_ENDPOINT", ""),

		IsLambda:           getEnvBool("IS_LAMBDA", os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""),
		LambdaFunctionName: getEnv("AWS_LAMBDA_FUNCTION_NAME", ""),

		WebSocketEndpoint:   getEnv("WEBSOCKET_ENDPOINT", ""),
		TrustIdentityHeader: getEnvBool("TRUST_IDENTITY_HEADER", false),
		ConnectionTTL:       getEnvDuration("CONNECTION_TTL", 2*time.Hour),

		CommentTreeLimit: getEnvInt("COMMENT_TREE_LIMIT", 500),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		LogFile:   getEnv("LOG_FILE", ""),

		JWTSecret:    getEnv("JWT_SECRET", ""),
		JWTIssuer:    getEnv("JWT_ISSUER", ""),
		JWTPublicKey: getEnv("JWT_PUBLIC_KEY", ""),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 20),

		RelayQueueSize: getEnvInt("RELAY_QUEUE_SIZE", 1024),

		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
		EnableTracing: getEnvBool("ENABLE_TRACING", false),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
		AllowOrigins:  []string{getEnv("ALLOW_ORIGIN", "*")},

		ConfigFile: getEnv("CONFIG_FILE", ""),
	}
}

// applyFile overlays the non-zero values of a YAML file
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("TABLE_NAME is required for the dynamodb backend")
		}
	case StorageBadger:
		if c.BadgerPath == "" {
			return fmt.Errorf("BADGER_PATH is required for the badger backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}

	if c.CommentTreeLimit <= 0 {
		return fmt.Errorf("COMMENT_TREE_LIMIT must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}

	if c.Environment == Production {
		if c.JWTSecret == "" && c.JWTPublicKey == "" {
			return fmt.Errorf("JWT_SECRET or JWT_PUBLIC_KEY is required in production")
		}
		if c.TrustIdentityHeader {
			return fmt.Errorf("TRUST_IDENTITY_HEADER must not be enabled in production")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
