package config

import (
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks the settings a command mode depends on. Modes: "georef",
// "serve", "migrate". All problems are reported together.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "georef":
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be > 0 and <= 65535")
		}
		if c.Server.MetricsPath != "" && !strings.HasPrefix(c.Server.MetricsPath, "/") {
			problems = append(problems, "server.metrics_path must start with /")
		}
	case "migrate":
		if c.Migrate.Concurrency < 1 || c.Migrate.Concurrency > 32 {
			problems = append(problems, "migrate.concurrency must be between 1 and 32")
		}
		if c.Migrate.RequestsPerSecond <= 0 {
			problems = append(problems, "migrate.requests_per_second must be > 0")
		}
		if c.Migrate.ProvinceColumn == "" {
			problems = append(problems, "migrate.province_column is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	problems = append(problems, c.Georef.problems()...)

	if len(problems) > 0 {
		return eris.Errorf("config: invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (g GeorefConfig) problems() []string {
	var problems []string

	u, err := url.Parse(g.BaseURL)
	if g.BaseURL == "" || err != nil || u.Scheme == "" || u.Host == "" {
		problems = append(problems, "georef.base_url must be an absolute URL")
	}
	if g.RateLimit.MaxRequestsPerMinute < 0 {
		problems = append(problems, "georef.rate_limit.max_requests_per_minute must be >= 0")
	}
	if g.Retry.MaxRetries < 0 || g.Retry.MaxRetries > 10 {
		problems = append(problems, "georef.retry.max_retries must be between 0 and 10")
	}
	if g.Retry.MaxJitterMs > g.Retry.BaseDelayMs {
		problems = append(problems, "georef.retry.max_jitter_ms must not exceed base_delay_ms")
	}
	if g.Cache.MaxEntries < 0 {
		problems = append(problems, "georef.cache.max_entries must be >= 0")
	}
	return problems
}
