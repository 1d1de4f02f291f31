package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/tetratelabs/wazero"
)

var (
	ErrCacheClosed    = errors.New("cache closed")
	ErrModuleNotFound = errors.New("module not found")
)

// ModuleID identifies module bytes in a Cache.
type ModuleID string

// ModuleIDOf returns the id the cache assigns to wasm.
func ModuleIDOf(wasm []byte) ModuleID {
	return ModuleID(strconv.FormatUint(xxhash.Sum64(wasm), 16))
}

// Cache keeps guest module bytes and a compilation cache shared by every
// store it creates, so compiling a known module for a new call is cheap.
type Cache struct {
	compilation wazero.CompilationCache
	cfg         cacheConfig
	modules     map[ModuleID][]byte
	mu          sync.RWMutex
	closed      bool
}

// NewCache creates an empty Cache.
func NewCache(opts ...CacheOption) (*Cache, error) {
	cfg := defaultCacheConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	var compilation wazero.CompilationCache
	if cfg.diskCache {
		dir := cfg.cacheDir
		if dir == "" {
			dir = defaultCacheDir()
		}
		var err error
		compilation, err = wazero.NewCompilationCacheWithDir(dir)
		if err != nil {
			return nil, fmt.Errorf("create disk cache: %w", err)
		}
	} else {
		compilation = wazero.NewCompilationCache()
	}

	return &Cache{
		compilation: compilation,
		cfg:         cfg,
		modules:     make(map[ModuleID][]byte),
	}, nil
}

func (c *Cache) runtimeConfig() wazero.RuntimeConfig {
	rtConfig := wazero.NewRuntimeConfig().
		WithCloseOnContextDone(true).
		WithCompilationCache(c.compilation)
	if c.cfg.memoryLimitPages > 0 {
		rtConfig = rtConfig.WithMemoryLimitPages(c.cfg.memoryLimitPages)
	}
	return rtConfig
}

// Add compiles wasm once to validate it and stores it. Adding the same
// bytes twice returns the same id without recompiling.
func (c *Cache) Add(ctx context.Context, wasm []byte) (ModuleID, error) {
	id := ModuleIDOf(wasm)

	c.mu.RLock()
	_, ok := c.modules[id]
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return "", ErrCacheClosed
	}
	if ok {
		return id, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return "", ErrCacheClosed
	}
	if _, ok := c.modules[id]; ok {
		return id, nil
	}

	rt := wazero.NewRuntimeWithConfig(ctx, c.runtimeConfig())
	defer rt.Close(ctx)

	if _, err := rt.CompileModule(ctx, wasm); err != nil {
		return "", fmt.Errorf("compile module %s: %w", id, err)
	}

	c.modules[id] = append([]byte(nil), wasm...)
	return id, nil
}

// Has reports whether id is cached.
func (c *Cache) Has(id ModuleID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.modules[id]
	return ok
}

// Remove drops id from the cache. Contexts already created stay valid.
func (c *Cache) Remove(id ModuleID) {
	c.mu.Lock()
	delete(c.modules, id)
	c.mu.Unlock()
}

// Len returns the number of cached modules.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.modules)
}

// IDs returns the cached module ids in sorted order.
func (c *Cache) IDs() []ModuleID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]ModuleID, 0, len(c.modules))
	for id := range c.modules {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// NewContext returns a fresh ExecutionContext for the module id: a new
// store and the module compiled for it.
func (c *Cache) NewContext(ctx context.Context, id ModuleID) (*ExecutionContext, error) {
	c.mu.RLock()
	wasm, ok := c.modules[id]
	closed := c.closed
	c.mu.RUnlock()

	if closed {
		return nil, ErrCacheClosed
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, id)
	}

	store := newStore(ctx, c.runtimeConfig())
	compiled, err := store.Runtime().CompileModule(ctx, wasm)
	if err != nil {
		store.Close(ctx)
		return nil, fmt.Errorf("compile module %s: %w", id, err)
	}

	return &ExecutionContext{
		ModuleID: id,
		Module:   compiled,
		Store:    store,
	}, nil
}

// Close releases the compilation cache. Call it only after every context
// it created has been run or closed.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.modules = nil

	return c.compilation.Close(context.Background())
}

func defaultCacheDir() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "tallyvm")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "tallyvm")
	}
	return filepath.Join(os.TempDir(), "tallyvm-cache")
}
