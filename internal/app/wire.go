package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	s3blob "github.com/arblab/arbcore/internal/blob/s3"
	"github.com/arblab/arbcore/internal/cache/redis"
	"github.com/arblab/arbcore/internal/config"
	"github.com/arblab/arbcore/internal/domain"
	"github.com/arblab/arbcore/internal/notify"
	"github.com/arblab/arbcore/internal/obs"
	"github.com/arblab/arbcore/internal/service"
	"github.com/arblab/arbcore/internal/sink"
	"github.com/arblab/arbcore/internal/store/postgres"
)

// Dependencies bundles everything the application modes need to operate.
// It is constructed by Wire and torn down by the returned cleanup
// function. Integration fields are nil when the integration is disabled.
type Dependencies struct {
	Metrics *obs.Metrics

	// Opportunity delivery pipeline.
	Sink     *sink.AsyncSink
	Notifier *notify.Notifier

	// Redis-backed collaborators.
	QuoteCache  domain.QuoteCache
	RateLimiter domain.RateLimiter
	LockManager domain.LockManager
	SignalBus   domain.SignalBus
	Mirror      *service.QuoteMirror

	// Opportunity history and its cold archive.
	History  domain.OpportunityStore
	Archiver domain.Archiver
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{Metrics: obs.NewMetrics()}

	// --- PostgreSQL (opportunity history) ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.History = postgres.NewOpportunityStore(pgClient.Pool())
	}

	// --- Redis (mirror, signal bus, rate limiting, locks) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.QuoteCache = redis.NewQuoteCache(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.LockManager = redis.NewLockManager(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient, cfg.Redis.StreamMaxLen)

		if cfg.Redis.MirrorEnabled {
			deps.Mirror = service.NewQuoteMirror(deps.QuoteCache, cfg.Redis.MirrorQueueSize, deps.Metrics, logger)
		}
	}

	// --- S3 (cold archive of opportunity history) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		// Validation guarantees Postgres is on whenever S3 is.
		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client), deps.History)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if len(senders) > 0 {
		deps.Notifier = notify.NewNotifier(
			senders,
			cfg.Notify.Events,
			deps.RateLimiter,
			cfg.Notify.RateLimitPerMin,
			time.Minute,
			cfg.Engine.PriceDecimals,
			logger,
		)
	}

	// --- Opportunity fan-out ---
	enc := sink.NewEncoder(cfg.Engine.PriceDecimals, cfg.Engine.QuantityDecimals)
	var outs []domain.OpportunitySink
	if cfg.Sink.EnableLog {
		outs = append(outs, sink.NewLog(logger, cfg.Engine.PriceDecimals))
	}
	if deps.History != nil {
		outs = append(outs, sink.NewStore(deps.History))
	}
	if deps.SignalBus != nil {
		outs = append(outs, sink.NewBus(deps.SignalBus, enc))
	}
	if cfg.Kafka.Enabled {
		kafkaSink := sink.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic, enc)
		closers = append(closers, func() { _ = kafkaSink.Close() })
		outs = append(outs, kafkaSink)
	}
	if deps.Notifier != nil {
		outs = append(outs, deps.Notifier)
	}
	deps.Sink = sink.NewAsync(cfg.Sink.QueueSize, outs, deps.Metrics, logger)

	return deps, cleanup, nil
}
