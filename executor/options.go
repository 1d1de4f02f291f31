package executor

import (
	"go.uber.org/zap"
)

// DefaultMaxLiveUnits bounds concurrently live execution units, including
// units abandoned after a timeout that have not exited yet.
const DefaultMaxLiveUnits = 64

// ExecutorOption configures the Executor at creation time.
type ExecutorOption func(*executorConfig)

type executorConfig struct {
	logger       *zap.Logger
	maxLiveUnits int64
	outputLimit  int
}

func defaultExecutorConfig() executorConfig {
	return executorConfig{
		logger:       zap.NewNop(),
		maxLiveUnits: DefaultMaxLiveUnits,
		outputLimit:  DefaultOutputLimit,
	}
}

// WithLogger sets the logger for call lifecycle events.
func WithLogger(logger *zap.Logger) ExecutorOption {
	return func(c *executorConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMaxLiveUnits caps the number of execution units alive at once.
// A call that cannot get a slot within the deadline fails with
// ErrUnitLimit.
func WithMaxLiveUnits(n int) ExecutorOption {
	return func(c *executorConfig) {
		if n > 0 {
			c.maxLiveUnits = int64(n)
		}
	}
}

// WithOutputLimit caps the bytes captured per stream and call.
func WithOutputLimit(bytes int) ExecutorOption {
	return func(c *executorConfig) {
		if bytes > 0 {
			c.outputLimit = bytes
		}
	}
}

// CacheOption configures a Cache at creation time.
type CacheOption func(*cacheConfig)

type cacheConfig struct {
	diskCache        bool
	cacheDir         string
	memoryLimitPages uint32 // Max memory pages (each page = 64KB), 0 = default (4GB)
}

func defaultCacheConfig() cacheConfig {
	return cacheConfig{}
}

// WithDiskCache persists compiled machine code across processes.
// Optionally provide a custom directory; otherwise uses ~/.cache/tallyvm or XDG_CACHE_HOME/tallyvm.
//
// Examples:
//
//	executor.NewCache(executor.WithDiskCache())            // default dir
//	executor.NewCache(executor.WithDiskCache("/tmp/cache")) // custom dir
func WithDiskCache(dir ...string) CacheOption {
	return func(c *cacheConfig) {
		c.diskCache = true
		if len(dir) > 0 && dir[0] != "" {
			c.cacheDir = dir[0]
		}
	}
}

// WithMemoryLimit sets the maximum memory available to guest modules.
// Each page is 64KB. Examples:
//   - WithMemoryLimit(16) = 1MB max
//   - WithMemoryLimit(256) = 16MB max
//   - WithMemoryLimit(1024) = 64MB max
//
// Default is 0 (no limit, up to 4GB).
func WithMemoryLimit(pages uint32) CacheOption {
	return func(c *cacheConfig) {
		c.memoryLimitPages = pages
	}
}

// Memory limit constants for convenience.
const (
	MemoryLimit1MB   uint32 = 16    // 1 MB
	MemoryLimit16MB  uint32 = 256   // 16 MB
	MemoryLimit64MB  uint32 = 1024  // 64 MB
	MemoryLimit256MB uint32 = 4096  // 256 MB
	MemoryLimit1GB   uint32 = 16384 // 1 GB
)
