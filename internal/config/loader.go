package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ARBCORE_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ARBCORE_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e.
// not empty). This lets operators inject secrets at deploy time without
// touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Engine ──
	setInt(&cfg.Engine.PriceDecimals, "ARBCORE_ENGINE_PRICE_DECIMALS")
	setInt(&cfg.Engine.QuantityDecimals, "ARBCORE_ENGINE_QUANTITY_DECIMALS")
	setInt(&cfg.Engine.Depth, "ARBCORE_ENGINE_DEPTH")
	setInt64(&cfg.Engine.CrossMinProfitBps, "ARBCORE_ENGINE_CROSS_MIN_PROFIT_BPS")
	setInt64(&cfg.Engine.TriangleMinProfitBps, "ARBCORE_ENGINE_TRIANGLE_MIN_PROFIT_BPS")
	setStr(&cfg.Engine.MaxPrice, "ARBCORE_ENGINE_MAX_PRICE")
	setStr(&cfg.Engine.MaxQuantity, "ARBCORE_ENGINE_MAX_QUANTITY")
	setStringSlice(&cfg.Engine.Exchanges, "ARBCORE_ENGINE_EXCHANGES")
	setStringSlice(&cfg.Engine.Symbols, "ARBCORE_ENGINE_SYMBOLS")

	// ── Feed ──
	setStr(&cfg.Feed.WsURL, "ARBCORE_FEED_WS_URL")
	setInt(&cfg.Feed.QueueSize, "ARBCORE_FEED_QUEUE_SIZE")
	setInt(&cfg.Feed.Workers, "ARBCORE_FEED_WORKERS")

	// ── Sim ──
	setDuration(&cfg.Sim.Interval, "ARBCORE_SIM_INTERVAL")
	setInt64(&cfg.Sim.Seed, "ARBCORE_SIM_SEED")
	setInt(&cfg.Sim.Burst, "ARBCORE_SIM_BURST")

	// ── Sink ──
	setBool(&cfg.Sink.EnableLog, "ARBCORE_SINK_ENABLE_LOG")
	setInt(&cfg.Sink.QueueSize, "ARBCORE_SINK_QUEUE_SIZE")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "ARBCORE_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "ARBCORE_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARBCORE_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARBCORE_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ARBCORE_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ARBCORE_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ARBCORE_REDIS_TLS_ENABLED")
	setBool(&cfg.Redis.MirrorEnabled, "ARBCORE_REDIS_MIRROR_ENABLED")
	setInt(&cfg.Redis.MirrorQueueSize, "ARBCORE_REDIS_MIRROR_QUEUE_SIZE")
	setInt64(&cfg.Redis.StreamMaxLen, "ARBCORE_REDIS_STREAM_MAX_LEN")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "ARBCORE_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "ARBCORE_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "ARBCORE_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "ARBCORE_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "ARBCORE_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "ARBCORE_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "ARBCORE_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "ARBCORE_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "ARBCORE_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "ARBCORE_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "ARBCORE_POSTGRES_RUN_MIGRATIONS")

	// ── Kafka ──
	setBool(&cfg.Kafka.Enabled, "ARBCORE_KAFKA_ENABLED")
	setStringSlice(&cfg.Kafka.Brokers, "ARBCORE_KAFKA_BROKERS")
	setStr(&cfg.Kafka.Topic, "ARBCORE_KAFKA_TOPIC")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "ARBCORE_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "ARBCORE_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "ARBCORE_S3_REGION")
	setStr(&cfg.S3.Bucket, "ARBCORE_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "ARBCORE_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "ARBCORE_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "ARBCORE_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "ARBCORE_S3_FORCE_PATH_STYLE")
	setInt(&cfg.S3.RetentionDays, "ARBCORE_S3_RETENTION_DAYS")
	setInt(&cfg.S3.ArchiveHourUTC, "ARBCORE_S3_ARCHIVE_HOUR_UTC")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "ARBCORE_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ARBCORE_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ARBCORE_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "ARBCORE_NOTIFY_EVENTS")
	setInt(&cfg.Notify.RateLimitPerMin, "ARBCORE_NOTIFY_RATE_LIMIT_PER_MIN")

	// ── Top-level ──
	setStr(&cfg.Mode, "ARBCORE_MODE")
	setStr(&cfg.LogLevel, "ARBCORE_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
