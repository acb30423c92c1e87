package reputation

import "sync"

// configCache holds the cached configuration state for reputation
// weighting in feed ranking.
var configCache struct {
	mu      sync.RWMutex
	enabled *bool
}

// SetWeightingEnabled sets the reputation weighting feature flag state.
// This should be called once during application initialization.
// Thread-safe via mutex.
func SetWeightingEnabled(enabled bool) {
	configCache.mu.Lock()
	defer configCache.mu.Unlock()
	configCache.enabled = &enabled
}

// IsWeightingEnabled returns whether reputation-weighted ranking is
// enabled. Returns false if not initialized (safe default).
// Thread-safe via mutex.
func IsWeightingEnabled() bool {
	configCache.mu.RLock()
	defer configCache.mu.RUnlock()
	if configCache.enabled == nil {
		return false // Safe default when not initialized
	}
	return *configCache.enabled
}
