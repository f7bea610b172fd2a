package main

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/carroceria-sur/taller/internal/config"
	"github.com/carroceria-sur/taller/internal/resilience"
	"github.com/carroceria-sur/taller/pkg/georef"
)

// newGeorefClient builds the georef client from configuration. reg may be
// nil when metrics are not exposed.
func newGeorefClient(c config.GeorefConfig, reg prometheus.Registerer) (georef.Client, error) {
	opts := []georef.Option{
		georef.WithBaseURL(c.BaseURL),
		georef.WithHTTPClient(&http.Client{Timeout: time.Duration(c.TimeoutSecs) * time.Second}),
		georef.WithRetry(resilience.FromRetryConfig(c.Retry.MaxRetries, c.Retry.BaseDelayMs, c.Retry.MaxDelayMs, c.Retry.MaxJitterMs)),
		georef.WithRateLimit(resilience.FromWindowConfig(c.RateLimit.WindowSecs, c.RateLimit.MaxRequestsPerMinute, c.RateLimit.MinIntervalMs)),
		georef.WithTTLs(ttlsFromConfig(c.Cache)),
		georef.WithCacheSize(c.Cache.MaxEntries),
		georef.WithLimits(limitsFromConfig(c.Max)),
		georef.WithMetrics(georef.NewMetrics(reg)),
	}

	if c.FallbackPath != "" {
		fb, err := georef.LoadFallback(c.FallbackPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, georef.WithFallback(fb))
	}

	return georef.NewClient(opts...)
}

// ttlsFromConfig converts minute settings, keeping defaults for zero values.
func ttlsFromConfig(c config.CacheConfig) georef.TTLs {
	d := georef.DefaultTTLs()
	mins := func(v int, def time.Duration) time.Duration {
		if v > 0 {
			return time.Duration(v) * time.Minute
		}
		return def
	}
	return georef.TTLs{
		Provinces:     mins(c.ProvincesTTLMins, d.Provinces),
		Localities:    mins(c.LocalitiesTTLMins, d.Localities),
		AllLocalities: mins(c.AllLocalitiesTTLMins, d.AllLocalities),
		Default:       mins(c.DefaultTTLMins, d.Default),
	}
}

func limitsFromConfig(c config.MaxConfig) georef.Limits {
	return georef.Limits{
		Provinces:     c.Provinces,
		Localities:    c.Localities,
		AllLocalities: c.AllLocalities,
		Search:        c.Search,
		Addresses:     c.Addresses,
	}.OrDefaults()
}
