package config

import (
	"context"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Load outcomes are counted here rather than in internal/observability
// because that package depends on this one for its own initialization.
var loadEvents = struct {
	once    sync.Once
	counter metric.Int64Counter
}{}

func recordConfigValidationEvent(ctx context.Context, profile, outcome, errorClass string) {
	loadEvents.once.Do(func() {
		c, err := otel.Meter("session-lifecycle-service").Int64Counter("config.validation.events")
		if err != nil {
			return
		}
		loadEvents.counter = c
	})
	if loadEvents.counter == nil {
		// Meter creation failed; config loading still proceeds.
		return
	}
	loadEvents.counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("profile", normalizeConfigProfile(profile)),
		attribute.String("outcome", outcome),
		attribute.String("error_class", errorClass),
	))
}

func normalizeConfigProfile(profile string) string {
	if v := strings.TrimSpace(strings.ToLower(profile)); v != "" {
		return v
	}
	return "unknown"
}

// classifyConfigLoadError buckets load failures by the error prefixes that
// Load attaches, so dashboards can tell a malformed value from a missing
// required setting.
func classifyConfigLoadError(err error) string {
	if err == nil {
		return "none"
	}
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	if strings.Contains(msg, "validate config:") {
		return "validation"
	}
	if strings.Contains(msg, "parse ") {
		return "parse"
	}
	return "load"
}
