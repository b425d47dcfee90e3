package blobstore

import (
	"time"

	"gopkg.in/ini.v1"
)

// Config holds the arena's tunables. All four fields are independent
// knobs; the presets below are the only sanctioned starting points,
// splitting hardcoded defaults from optional file overrides.
type Config struct {
	// PageSize is the byte size of each page; also the single/multi
	// page split threshold for Append.
	PageSize uint32

	// PrefetchThreshold (0.0-1.0) is a hint for proactive hot-page
	// succession. Validate checks its range; Append does not read it
	// and rotates the hot page only when a payload does not fit.
	PrefetchThreshold float64

	// DecayTimeoutMs is the minimum retired-to-removed delay enforced
	// by cleanup's two-phase protocol.
	DecayTimeoutMs uint64

	// DefaultTTLMs is the per-handle liveness bound used by Get and by
	// cleanup's retirement check.
	DefaultTTLMs uint64
}

// DefaultConfig is the baseline preset.
func DefaultConfig() Config {
	return Config{
		PageSize:          1 << 20, // 1 MiB
		PrefetchThreshold: 0.8,
		DecayTimeoutMs:    5000,
		DefaultTTLMs:      30000,
	}
}

// PerformanceConfig trades memory for fewer page rotations and a
// longer decay grace period, favouring throughput over reclaiming
// memory promptly.
func PerformanceConfig() Config {
	return Config{
		PageSize:          4 << 20, // 4 MiB
		PrefetchThreshold: 0.9,
		DecayTimeoutMs:    15000,
		DefaultTTLMs:      60000,
	}
}

// MemoryEfficientConfig trades throughput for smaller pages and
// faster reclamation, favouring a small working set over raw speed.
func MemoryEfficientConfig() Config {
	return Config{
		PageSize:          64 << 10, // 64 KiB
		PrefetchThreshold: 0.7,
		DecayTimeoutMs:    2000,
		DefaultTTLMs:      10000,
	}
}

// Validate rejects configurations that would make the arena's
// invariants impossible to uphold (a zero page size admits no
// allocation at all; an out-of-range threshold has no meaning).
func (c Config) Validate() error {
	if c.PageSize == 0 {
		return wrapErr("Config.Validate", ErrInvalidConfig)
	}
	if c.PrefetchThreshold < 0 || c.PrefetchThreshold > 1 {
		return wrapErr("Config.Validate", ErrInvalidConfig)
	}
	return nil
}

// LoadConfigFile loads overrides from an INI file's "arena" section,
// returning any parse or validation failure as an error rather than
// terminating the process. Fields not present in the file keep the
// value base already carries, so callers typically pass a preset as
// base and layer file overrides on top of it.
func LoadConfigFile(path string, base Config) (Config, error) {
	cfg := base

	raw, err := ini.Load(path)
	if err != nil {
		return cfg, wrapErr("LoadConfigFile", err)
	}

	section := raw.Section("arena")

	if key, err := section.GetKey("page_size"); err == nil {
		n, parseErr := key.Int()
		if parseErr != nil {
			return cfg, wrapErr("LoadConfigFile: page_size", parseErr)
		}
		cfg.PageSize = uint32(n)
	}

	if key, err := section.GetKey("prefetch_threshold"); err == nil {
		f, parseErr := key.Float64()
		if parseErr != nil {
			return cfg, wrapErr("LoadConfigFile: prefetch_threshold", parseErr)
		}
		cfg.PrefetchThreshold = f
	}

	if key, err := section.GetKey("decay_timeout_ms"); err == nil {
		d, parseErr := time.ParseDuration(key.Value())
		if parseErr == nil {
			cfg.DecayTimeoutMs = uint64(d.Milliseconds())
		} else if n, intErr := key.Int64(); intErr == nil {
			cfg.DecayTimeoutMs = uint64(n)
		} else {
			return cfg, wrapErr("LoadConfigFile: decay_timeout_ms", parseErr)
		}
	}

	if key, err := section.GetKey("default_ttl_ms"); err == nil {
		d, parseErr := time.ParseDuration(key.Value())
		if parseErr == nil {
			cfg.DefaultTTLMs = uint64(d.Milliseconds())
		} else if n, intErr := key.Int64(); intErr == nil {
			cfg.DefaultTTLMs = uint64(n)
		} else {
			return cfg, wrapErr("LoadConfigFile: default_ttl_ms", parseErr)
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
