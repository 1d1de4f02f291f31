package executor

import (
	"context"
	"errors"
	"testing"
)

// emptyModule is "(module)" in binary form.
var emptyModule = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func TestCacheAddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	c, err := NewCache()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	id1, err := c.Add(ctx, emptyModule)
	if err != nil {
		t.Fatal(err)
	}
	id2, err := c.Add(ctx, emptyModule)
	if err != nil {
		t.Fatal(err)
	}

	if id1 != id2 || id1 != ModuleIDOf(emptyModule) {
		t.Errorf("ids differ: %s %s", id1, id2)
	}
	if c.Len() != 1 || !c.Has(id1) {
		t.Errorf("Len = %d, Has = %v", c.Len(), c.Has(id1))
	}
}

func TestCacheRejectsInvalidModule(t *testing.T) {
	c, err := NewCache()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, err := c.Add(context.Background(), []byte("not wasm")); err == nil {
		t.Fatal("invalid module was accepted")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d after failed add", c.Len())
	}
}

func TestCacheNewContext(t *testing.T) {
	ctx := context.Background()
	c, err := NewCache()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, err := c.NewContext(ctx, "missing"); !errors.Is(err, ErrModuleNotFound) {
		t.Errorf("NewContext(missing) = %v, want ErrModuleNotFound", err)
	}

	id, _ := c.Add(ctx, emptyModule)
	a, err := c.NewContext(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.NewContext(ctx, id)
	if err != nil {
		t.Fatal(err)
	}

	if a.Store == b.Store {
		t.Error("contexts share a store")
	}
	if a.ModuleID != id {
		t.Errorf("ModuleID = %s", a.ModuleID)
	}

	if err := a.Close(ctx); err != nil {
		t.Error(err)
	}
	if a.consume() {
		t.Error("closed context can still be consumed")
	}
	b.Close(ctx)
}

func TestCacheRemoveAndIDs(t *testing.T) {
	ctx := context.Background()
	c, _ := NewCache()
	defer c.Close()

	id, _ := c.Add(ctx, emptyModule)
	if ids := c.IDs(); len(ids) != 1 || ids[0] != id {
		t.Errorf("IDs = %v", ids)
	}
	c.Remove(id)
	if c.Has(id) {
		t.Error("module still cached after Remove")
	}
}

func TestCacheClosed(t *testing.T) {
	c, _ := NewCache()
	c.Close()

	if _, err := c.Add(context.Background(), emptyModule); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Add after Close = %v", err)
	}
	if _, err := c.NewContext(context.Background(), "x"); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("NewContext after Close = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}

func TestCacheDiskCache(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCache(WithDiskCache(dir), WithMemoryLimit(MemoryLimit16MB))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, err := c.Add(context.Background(), emptyModule); err != nil {
		t.Fatal(err)
	}
}
