package config

import (
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
	StoreDriverMemory   = "memory"

	RateLimitStoreMemory = "memory"
	RateLimitStoreRedis  = "redis"
)

// Config keys are the lower-cased environment variable names, so
// JWT_SECRET and `jwt_secret:` in a YAML file set the same field.
type Config struct {
	Environment string `koanf:"environment"`
	Version     string `koanf:"app_version"`
	LogLevel    string `koanf:"log_level"`
	LogFormat   string `koanf:"log_format"`

	GatewayPort        string        `koanf:"api_gateway_port"`
	ServerReadTimeout  time.Duration `koanf:"server_read_timeout"`
	ServerWriteTimeout time.Duration `koanf:"server_write_timeout"`
	ServerIdleTimeout  time.Duration `koanf:"server_idle_timeout"`
	RequestTimeout     time.Duration `koanf:"request_timeout"`
	ShutdownTimeout    time.Duration `koanf:"shutdown_timeout"`

	UserServiceHost         string        `koanf:"user_service_host"`
	UserServicePort         string        `koanf:"user_service_port"`
	OrderServiceHost        string        `koanf:"order_service_host"`
	OrderServicePort        string        `koanf:"order_service_port"`
	RPCTimeout              time.Duration `koanf:"rpc_timeout"`
	RPCMaxCommandsPerSecond float64       `koanf:"rpc_max_commands_per_second"`
	MetricsPort             string        `koanf:"metrics_port"`

	JWTSecret      string        `koanf:"jwt_secret"`
	JWTTTL         time.Duration `koanf:"jwt_expires_in"`
	EncryptionKey  string        `koanf:"encryption_key"`
	AllowedOrigins string        `koanf:"allowed_origins"`
	TrustedProxies string        `koanf:"trusted_proxies"`

	RateLimitStore       string        `koanf:"rate_limit_store"`
	RedisURL             string        `koanf:"redis_url"`
	RateLimitShortLimit  int           `koanf:"rate_limit_short_limit"`
	RateLimitShortTTL    time.Duration `koanf:"rate_limit_short_ttl"`
	RateLimitMediumLimit int           `koanf:"rate_limit_medium_limit"`
	RateLimitMediumTTL   time.Duration `koanf:"rate_limit_medium_ttl"`
	RateLimitLongLimit   int           `koanf:"rate_limit_long_limit"`
	RateLimitLongTTL     time.Duration `koanf:"rate_limit_long_ttl"`
	MaxPayloadBytes      int64         `koanf:"max_payload_bytes"`

	StoreDriver string `koanf:"store_driver"`
	DatabaseURL string `koanf:"database_url"`
	DBHost      string `koanf:"db_host"`
	DBPort      string `koanf:"db_port"`
	DBUsername  string `koanf:"db_username"`
	DBPassword  string `koanf:"db_password"`
	DBName      string `koanf:"db_name"`
	DBMaxConns  int32  `koanf:"db_max_conns"`
	DBMinConns  int32  `koanf:"db_min_conns"`
	SQLitePath  string `koanf:"sqlite_path"`
	AutoMigrate bool   `koanf:"auto_migrate"`
}

func Defaults() *Config {
	return &Config{
		Environment: "development",
		Version:     "1.0.0",
		LogLevel:    "info",
		LogFormat:   "pretty",

		GatewayPort:        "3000",
		ServerReadTimeout:  15 * time.Second,
		ServerWriteTimeout: 30 * time.Second,
		ServerIdleTimeout:  120 * time.Second,
		RequestTimeout:     30 * time.Second,
		ShutdownTimeout:    15 * time.Second,

		UserServiceHost:         "localhost",
		UserServicePort:         "3001",
		OrderServiceHost:        "localhost",
		OrderServicePort:        "3002",
		RPCTimeout:              5 * time.Second,
		RPCMaxCommandsPerSecond: 500,

		JWTSecret:      "your-secret-key",
		JWTTTL:         24 * time.Hour,
		EncryptionKey:  "your-32-character-secret-key-here",
		AllowedOrigins: "http://localhost:3000,http://localhost:3001,http://localhost:8080",

		RateLimitStore:       RateLimitStoreMemory,
		RateLimitShortLimit:  3,
		RateLimitShortTTL:    time.Second,
		RateLimitMediumLimit: 20,
		RateLimitMediumTTL:   10 * time.Second,
		RateLimitLongLimit:   100,
		RateLimitLongTTL:     time.Minute,
		MaxPayloadBytes:      10 << 20,

		StoreDriver: StoreDriverPostgres,
		DBHost:      "localhost",
		DBPort:      "5432",
		DBUsername:  "postgres",
		DBPassword:  "postgres",
		DBName:      "microservices_db",
		DBMaxConns:  10,
		DBMinConns:  1,
		SQLitePath:  "./microshop.db",
		AutoMigrate: true,
	}
}

// Load reads .env into the process environment, then overlays the optional
// YAML file at path and finally the environment onto Defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.ProviderWithValue("", ".", func(key, value string) (string, any) {
		value = strings.TrimSpace(value)
		if value == "" {
			return "", nil
		}
		return strings.ToLower(key), value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Defaults()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.RateLimitStore = strings.ToLower(strings.TrimSpace(cfg.RateLimitStore))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_EXPIRES_IN must be positive")
	}

	if strings.TrimSpace(c.EncryptionKey) == "" {
		return fmt.Errorf("ENCRYPTION_KEY cannot be empty")
	}

	if _, err := c.TrustedProxyPrefixes(); err != nil {
		return err
	}

	if c.GatewayPort == "" || c.UserServicePort == "" || c.OrderServicePort == "" {
		return fmt.Errorf("service ports cannot be empty")
	}

	if c.RequestTimeout <= 0 || c.RPCTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT and RPC_TIMEOUT must be positive")
	}

	if c.MaxPayloadBytes <= 0 {
		return fmt.Errorf("MAX_PAYLOAD_BYTES must be positive")
	}

	if c.RPCMaxCommandsPerSecond <= 0 {
		return fmt.Errorf("RPC_MAX_COMMANDS_PER_SECOND must be positive")
	}

	tiers := []struct {
		name  string
		limit int
		ttl   time.Duration
	}{
		{"SHORT", c.RateLimitShortLimit, c.RateLimitShortTTL},
		{"MEDIUM", c.RateLimitMediumLimit, c.RateLimitMediumTTL},
		{"LONG", c.RateLimitLongLimit, c.RateLimitLongTTL},
	}
	for _, tier := range tiers {
		if tier.limit <= 0 || tier.ttl <= 0 {
			return fmt.Errorf("RATE_LIMIT_%s_LIMIT and RATE_LIMIT_%s_TTL must be positive", tier.name, tier.name)
		}
	}

	switch c.RateLimitStore {
	case RateLimitStoreMemory:
	case RateLimitStoreRedis:
		if strings.TrimSpace(c.RedisURL) == "" {
			return fmt.Errorf("REDIS_URL is required when RATE_LIMIT_STORE=redis")
		}
	default:
		return fmt.Errorf("unknown RATE_LIMIT_STORE %q", c.RateLimitStore)
	}

	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverSQLite, StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.StoreDriver == StoreDriverSQLite && strings.TrimSpace(c.SQLitePath) == "" {
		return fmt.Errorf("SQLITE_PATH cannot be empty")
	}

	return nil
}

func (c *Config) UserServiceAddr() string {
	return net.JoinHostPort(c.UserServiceHost, c.UserServicePort)
}

func (c *Config) OrderServiceAddr() string {
	return net.JoinHostPort(c.OrderServiceHost, c.OrderServicePort)
}

// CORSOrigins splits ALLOWED_ORIGINS on commas.
func (c *Config) CORSOrigins() []string {
	return splitCSV(c.AllowedOrigins)
}

// TrustedProxyPrefixes parses TRUSTED_PROXIES, a comma separated list of
// addresses or CIDR ranges whose forwarding headers are believed.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	entries := splitCSV(c.TrustedProxies)
	prefixes := make([]netip.Prefix, 0, len(entries))

	for _, entry := range entries {
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", entry, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}

		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", entry, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}

	return prefixes, nil
}

// DatabaseDSN prefers DATABASE_URL and otherwise builds a URL from the DB_* keys.
func (c *Config) DatabaseDSN() string {
	if strings.TrimSpace(c.DatabaseURL) != "" {
		return c.DatabaseURL
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUsername, c.DBPassword),
		Host:   net.JoinHostPort(c.DBHost, c.DBPort),
		Path:   "/" + c.DBName,
	}
	q := u.Query()
	q.Set("sslmode", "disable")
	u.RawQuery = q.Encode()

	return u.String()
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
