package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags manages feature toggles. The roster hub is operated by a
// small ministry team, so flags are plain on/off switches loaded from
// the environment; there is no per-user rollout.
type FeatureFlags struct {
	mu       sync.RWMutex
	features map[string]*Feature
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool
}

// Predefined feature flag names.
const (
	// === Evaluation Features ===

	// FeatureAutoDeactivation lets the weekly evaluation move chronic
	// absentees off the active roster. When disabled the evaluation
	// still runs and reports, but in dry-run mode.
	FeatureAutoDeactivation = "evaluation.auto_deactivation"

	// === Cache Features ===

	FeatureCachePersons = "cache.persons" // cache person records in Redis
	FeatureCacheReports = "cache.reports" // cache monthly attendance reports
	FeatureCacheCounts  = "cache.counts"  // cache dashboard counters

	// === Infrastructure Features ===

	// FeatureRedisEventBus shares domain events across instances via
	// Redis Pub/Sub instead of the in-memory bus.
	FeatureRedisEventBus = "infra.redis_event_bus"
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features: make(map[string]*Feature),
	}

	ff.initializeDefaults()
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	ff.features[FeatureAutoDeactivation] = &Feature{
		Name:        FeatureAutoDeactivation,
		Description: "Deactivate chronic absentees during the weekly evaluation",
		Enabled:     true,
	}

	ff.features[FeatureCachePersons] = &Feature{
		Name:        FeatureCachePersons,
		Description: "Cache person records in Redis",
		Enabled:     true,
	}

	ff.features[FeatureCacheReports] = &Feature{
		Name:        FeatureCacheReports,
		Description: "Cache monthly attendance reports in Redis",
		Enabled:     true,
	}

	ff.features[FeatureCacheCounts] = &Feature{
		Name:        FeatureCacheCounts,
		Description: "Cache dashboard counters in Redis",
		Enabled:     true,
	}

	ff.features[FeatureRedisEventBus] = &Feature{
		Name:        FeatureRedisEventBus,
		Description: "Share domain events across instances via Redis Pub/Sub",
		Enabled:     false, // single-instance deployments are the norm
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false
// Example: FEATURE_EVALUATION_AUTO_DEACTIVATION=false
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		if val := os.Getenv(envKey); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
			}
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "evaluation.auto_deactivation" -> "FEATURE_EVALUATION_AUTO_DEACTIVATION"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled.
func (ff *FeatureFlags) IsEnabled(featureName string) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}
	return feature.Enabled
}

// EnableFeature enables a feature. Thread-safe for live updates.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.setEnabled(featureName, true)
}

// DisableFeature disables a feature.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.setEnabled(featureName, false)
}

func (ff *FeatureFlags) setEnabled(featureName string, enabled bool) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}

	feature.Enabled = enabled
	return nil
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Errors ---

// ErrFeatureNotFound is returned for unknown feature names.
var ErrFeatureNotFound = &FeatureFlagError{Message: "feature not found"}

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
