package ratelimit

import (
	"strings"
	"time"

	"github.com/jonathan/warm-intros/internal/config"
)

const cleanupInterval = 5 * time.Minute

// AnalysisPath is the only endpoint that reaches the LLM.
const AnalysisPath = "/users/{id}/analysis"

// EndpointConfig limits one route pattern and method.
type EndpointConfig struct {
	Path   string // exact path, {param} pattern, or prefix ending in "/"
	Method string
	Limit  int // requests per Window
	Window time.Duration
	Burst  int // defaults to Limit when 0
}

// FromSettings builds the limiter configuration for the intro API.
// Reads use the default bucket; analysis runs use the tighter analysis bucket.
func FromSettings(s config.RateLimitConfig) *Config {
	if s.Disabled {
		return &Config{Enabled: false}
	}
	return &Config{
		Enabled:         true,
		DefaultLimit:    s.DefaultLimit,
		DefaultWindow:   s.DefaultWindow,
		CleanupInterval: cleanupInterval,
		Whitelist:       clientSet(s.Allow),
		Blacklist:       clientSet(s.Deny),
		EndpointConfigs: AnalysisEndpoints(s),
	}
}

// AnalysisEndpoints returns the per-endpoint table: only POST on the analysis route is listed.
func AnalysisEndpoints(s config.RateLimitConfig) []EndpointConfig {
	return []EndpointConfig{
		{Path: AnalysisPath, Method: "POST", Limit: s.AnalysisLimit, Window: s.AnalysisWindow, Burst: s.AnalysisBurst},
	}
}

func clientSet(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out[id] = true
		}
	}
	return out
}
