// Package config defines the top-level configuration for the arbitrage
// engine and provides validation helpers.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/arblab/arbcore/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by ARBCORE_* environment
// variables.
type Config struct {
	Engine   EngineConfig   `toml:"engine"`
	Feed     FeedConfig     `toml:"feed"`
	Sim      SimConfig      `toml:"sim"`
	Sink     SinkConfig     `toml:"sink"`
	Redis    RedisConfig    `toml:"redis"`
	Postgres PostgresConfig `toml:"postgres"`
	Kafka    KafkaConfig    `toml:"kafka"`
	S3       S3Config       `toml:"s3"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// EngineConfig holds the traded universe and the detection parameters.
type EngineConfig struct {
	PriceDecimals        int              `toml:"price_decimals"`
	QuantityDecimals     int              `toml:"quantity_decimals"`
	Depth                int              `toml:"depth"`
	DepthOverrides       map[string]int   `toml:"depth_overrides"`
	CrossMinProfitBps    int64            `toml:"cross_min_profit_bps"`
	TriangleMinProfitBps int64            `toml:"triangle_min_profit_bps"`
	MaxPrice             string           `toml:"max_price"`
	MaxQuantity          string           `toml:"max_quantity"`
	Exchanges            []string         `toml:"exchanges"`
	Symbols              []string         `toml:"symbols"`
	Triangles            []TriangleConfig `toml:"triangles"`
}

// TriangleConfig names the three leg symbols of one triangular cycle, in
// A/B, B/C, A/C order.
type TriangleConfig struct {
	Legs []string `toml:"legs"`
}

// FeedConfig holds live WebSocket feed parameters.
type FeedConfig struct {
	WsURL     string `toml:"ws_url"`
	QueueSize int    `toml:"queue_size"`
	Workers   int    `toml:"workers"`
}

// SimConfig holds the synthetic feed parameters for sim mode.
type SimConfig struct {
	Interval duration `toml:"interval"`
	Seed     int64    `toml:"seed"`
	Burst    int      `toml:"burst"`
}

// SinkConfig holds opportunity delivery parameters.
type SinkConfig struct {
	EnableLog bool `toml:"enable_log"`
	QueueSize int  `toml:"queue_size"`
}

// RedisConfig holds Redis connection parameters plus the best-quote
// mirror and signal-stream settings.
type RedisConfig struct {
	Enabled         bool   `toml:"enabled"`
	Addr            string `toml:"addr"`
	Password        string `toml:"password"`
	DB              int    `toml:"db"`
	PoolSize        int    `toml:"pool_size"`
	MaxRetries      int    `toml:"max_retries"`
	TLSEnabled      bool   `toml:"tls_enabled"`
	MirrorEnabled   bool   `toml:"mirror_enabled"`
	MirrorQueueSize int    `toml:"mirror_queue_size"`
	StreamMaxLen    int64  `toml:"stream_max_len"`
}

// PostgresConfig holds PostgreSQL connection parameters for the
// opportunity history store.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// KafkaConfig holds the opportunity event stream parameters.
type KafkaConfig struct {
	Enabled bool     `toml:"enabled"`
	Brokers []string `toml:"brokers"`
	Topic   string   `toml:"topic"`
}

// S3Config holds S3-compatible object storage parameters and the history
// archive schedule.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
	RetentionDays  int    `toml:"retention_days"`
	ArchiveHourUTC int    `toml:"archive_hour_utc"`
}

// NotifyConfig holds notification channel credentials and the alert
// budget.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
	RateLimitPerMin   int      `toml:"rate_limit_per_min"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder
// can parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// The traded universe (exchanges, symbols) has no default and must come
// from the file or the environment.
func Defaults() Config {
	return Config{
		Engine: EngineConfig{
			PriceDecimals:        8,
			QuantityDecimals:     8,
			Depth:                20,
			CrossMinProfitBps:    10,
			TriangleMinProfitBps: 10,
			MaxPrice:             "10000000",
			MaxQuantity:          "1000000000",
		},
		Feed: FeedConfig{
			QueueSize: 4096,
			Workers:   min(runtime.NumCPU(), 8),
		},
		Sim: SimConfig{
			Interval: duration{100 * time.Millisecond},
			Seed:     1,
			Burst:    16,
		},
		Sink: SinkConfig{
			EnableLog: true,
			QueueSize: 1024,
		},
		Redis: RedisConfig{
			Addr:            "localhost:6379",
			DB:              0,
			PoolSize:        20,
			MaxRetries:      3,
			TLSEnabled:      false,
			MirrorEnabled:   true,
			MirrorQueueSize: 1024,
			StreamMaxLen:    10_000,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "arbcore",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "arb.opportunities",
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "arbcore-history",
			UseSSL:         false,
			ForcePathStyle: true,
			RetentionDays:  90,
			ArchiveHourUTC: 3,
		},
		Notify: NotifyConfig{
			Events:          []string{"cross_exchange", "triangular"},
			RateLimitPerMin: 30,
		},
		Mode:     "sim",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"live": true,
	"sim":  true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validEvents enumerates the accepted values for NotifyConfig.Events.
var validEvents = map[string]bool{
	string(domain.OpportunityCrossExchange): true,
	string(domain.OpportunityTriangular):    true,
}

// ParseBounds converts the max_price and max_quantity decimal strings to
// fixed-point values at the configured scales. An empty string disables
// the bound.
func (e EngineConfig) ParseBounds() (maxPrice, maxQty domain.FixedPoint, err error) {
	if e.MaxPrice != "" {
		maxPrice, err = domain.ParseFixed(e.MaxPrice, e.PriceDecimals)
		if err != nil {
			return 0, 0, fmt.Errorf("max_price %q: %w", e.MaxPrice, err)
		}
	}
	if e.MaxQuantity != "" {
		maxQty, err = domain.ParseFixed(e.MaxQuantity, e.QuantityDecimals)
		if err != nil {
			return 0, 0, fmt.Errorf("max_quantity %q: %w", e.MaxQuantity, err)
		}
	}
	return maxPrice, maxQty, nil
}

// ParseTriangles builds the validated triangle definitions from the
// configured leg symbols.
func (e EngineConfig) ParseTriangles() ([]domain.Triangle, error) {
	out := make([]domain.Triangle, 0, len(e.Triangles))
	for i, tc := range e.Triangles {
		if len(tc.Legs) != 3 {
			return nil, fmt.Errorf("triangle %d: want 3 legs, got %d", i+1, len(tc.Legs))
		}
		tri, err := domain.NewTriangle(tc.Legs[0], tc.Legs[1], tc.Legs[2])
		if err != nil {
			return nil, fmt.Errorf("triangle %d: %w", i+1, err)
		}
		out = append(out, tri)
	}
	return out, nil
}

// Validate checks Config for obviously invalid or missing values and
// returns a combined error describing every problem found. A Config that
// fails validation must never reach the engine.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: live, sim)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Engine — decimals, depth, thresholds, universe.
	if c.Engine.PriceDecimals < 0 || c.Engine.PriceDecimals > domain.MaxDecimals {
		errs = append(errs, fmt.Sprintf("engine: price_decimals must be 0-%d, got %d", domain.MaxDecimals, c.Engine.PriceDecimals))
	}
	if c.Engine.QuantityDecimals < 0 || c.Engine.QuantityDecimals > domain.MaxDecimals {
		errs = append(errs, fmt.Sprintf("engine: quantity_decimals must be 0-%d, got %d", domain.MaxDecimals, c.Engine.QuantityDecimals))
	}
	if c.Engine.Depth < 1 {
		errs = append(errs, fmt.Sprintf("engine: depth must be >= 1, got %d", c.Engine.Depth))
	}
	for sym, depth := range c.Engine.DepthOverrides {
		if depth < 1 {
			errs = append(errs, fmt.Sprintf("engine: depth_overrides[%s] must be >= 1, got %d", sym, depth))
		}
	}
	if c.Engine.CrossMinProfitBps <= 0 {
		errs = append(errs, fmt.Sprintf("engine: cross_min_profit_bps must be > 0, got %d", c.Engine.CrossMinProfitBps))
	}
	if c.Engine.TriangleMinProfitBps <= 0 {
		errs = append(errs, fmt.Sprintf("engine: triangle_min_profit_bps must be > 0, got %d", c.Engine.TriangleMinProfitBps))
	}
	if len(c.Engine.Exchanges) == 0 {
		errs = append(errs, "engine: exchanges must list at least one exchange")
	}
	for _, ex := range c.Engine.Exchanges {
		if strings.TrimSpace(ex) == "" {
			errs = append(errs, "engine: exchanges must not contain empty names")
			break
		}
	}
	if len(c.Engine.Symbols) == 0 {
		errs = append(errs, "engine: symbols must list at least one pair")
	}
	registered := make(map[string]bool, len(c.Engine.Symbols))
	for _, sym := range c.Engine.Symbols {
		if _, err := domain.ParsePair(sym); err != nil {
			errs = append(errs, fmt.Sprintf("engine: symbol %q is not BASE/QUOTE syntax", sym))
			continue
		}
		registered[sym] = true
	}
	for sym := range c.Engine.DepthOverrides {
		if !registered[sym] {
			errs = append(errs, fmt.Sprintf("engine: depth_overrides[%s] names an unregistered symbol", sym))
		}
	}
	if _, _, err := c.Engine.ParseBounds(); err != nil {
		errs = append(errs, "engine: "+err.Error())
	}
	if tris, err := c.Engine.ParseTriangles(); err != nil {
		errs = append(errs, "engine: "+err.Error())
	} else {
		for _, tri := range tris {
			for _, leg := range tri.Symbols() {
				if !registered[leg] {
					errs = append(errs, fmt.Sprintf("engine: triangle %s: leg %s is not a registered symbol", tri, leg))
				}
			}
		}
	}

	// Feed — live mode needs an endpoint and a sane pipeline shape.
	if strings.ToLower(c.Mode) == "live" && c.Feed.WsURL == "" {
		errs = append(errs, "feed: ws_url is required for mode live")
	}
	if c.Feed.QueueSize < 1 {
		errs = append(errs, fmt.Sprintf("feed: queue_size must be >= 1, got %d", c.Feed.QueueSize))
	}
	if c.Feed.Workers < 1 {
		errs = append(errs, fmt.Sprintf("feed: workers must be >= 1, got %d", c.Feed.Workers))
	}

	// Sim
	if strings.ToLower(c.Mode) == "sim" {
		if c.Sim.Interval.Duration <= 0 {
			errs = append(errs, fmt.Sprintf("sim: interval must be > 0, got %s", c.Sim.Interval.Duration))
		}
		if c.Sim.Burst < 1 {
			errs = append(errs, fmt.Sprintf("sim: burst must be >= 1, got %d", c.Sim.Burst))
		}
	}

	// Sink
	if c.Sink.QueueSize < 1 {
		errs = append(errs, fmt.Sprintf("sink: queue_size must be >= 1, got %d", c.Sink.QueueSize))
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
		if c.Redis.MirrorEnabled && c.Redis.MirrorQueueSize < 1 {
			errs = append(errs, fmt.Sprintf("redis: mirror_queue_size must be >= 1, got %d", c.Redis.MirrorQueueSize))
		}
		if c.Redis.StreamMaxLen < 0 {
			errs = append(errs, fmt.Sprintf("redis: stream_max_len must be >= 0, got %d", c.Redis.StreamMaxLen))
		}
	}

	// Postgres
	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// Kafka
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, "kafka: brokers must list at least one broker when enabled")
		}
		if c.Kafka.Topic == "" {
			errs = append(errs, "kafka: topic must not be empty when enabled")
		}
	}

	// S3 — the archive reads history out of Postgres.
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
		if c.S3.RetentionDays < 1 {
			errs = append(errs, fmt.Sprintf("s3: retention_days must be >= 1, got %d", c.S3.RetentionDays))
		}
		if c.S3.ArchiveHourUTC < 0 || c.S3.ArchiveHourUTC > 23 {
			errs = append(errs, fmt.Sprintf("s3: archive_hour_utc must be 0-23, got %d", c.S3.ArchiveHourUTC))
		}
		if !c.Postgres.Enabled {
			errs = append(errs, "s3: archiving requires postgres to be enabled")
		}
	}

	// Notify — Telegram fields must be set together.
	tgToken := c.Notify.TelegramToken != ""
	tgChat := c.Notify.TelegramChatID != ""
	if tgToken != tgChat {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}
	for _, ev := range c.Notify.Events {
		if !validEvents[ev] {
			errs = append(errs, fmt.Sprintf("notify: unknown event %q (valid: cross_exchange, triangular)", ev))
		}
	}
	if c.Notify.RateLimitPerMin < 0 {
		errs = append(errs, fmt.Sprintf("notify: rate_limit_per_min must be >= 0, got %d", c.Notify.RateLimitPerMin))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
