package config

// RedactedConfig returns a shallow copy of cfg with sensitive fields
// replaced by the redaction placeholder "***". Use this when logging or
// printing the active configuration so secrets are never accidentally
// exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg // shallow copy of the top-level struct

	// Redis
	out.Redis = cfg.Redis
	redact(&out.Redis.Password)

	// Postgres
	out.Postgres = cfg.Postgres
	redact(&out.Postgres.DSN)
	redact(&out.Postgres.Password)

	// S3
	out.S3 = cfg.S3
	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)

	// Notify
	out.Notify = cfg.Notify
	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)

	// Copy slices so callers cannot mutate the original through the
	// redacted copy.
	out.Engine.Exchanges = cloneStrings(cfg.Engine.Exchanges)
	out.Engine.Symbols = cloneStrings(cfg.Engine.Symbols)
	out.Kafka.Brokers = cloneStrings(cfg.Kafka.Brokers)
	out.Notify.Events = cloneStrings(cfg.Notify.Events)
	if cfg.Engine.Triangles != nil {
		out.Engine.Triangles = make([]TriangleConfig, len(cfg.Engine.Triangles))
		for i, tc := range cfg.Engine.Triangles {
			out.Engine.Triangles[i] = TriangleConfig{Legs: cloneStrings(tc.Legs)}
		}
	}

	// Copy maps for the same reason.
	if cfg.Engine.DepthOverrides != nil {
		out.Engine.DepthOverrides = make(map[string]int, len(cfg.Engine.DepthOverrides))
		for k, v := range cfg.Engine.DepthOverrides {
			out.Engine.DepthOverrides[k] = v
		}
	}

	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
