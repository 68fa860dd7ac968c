package wilderblog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// countingSessions counts GetCategories calls on the sessions it hands out.
type countingSessions struct {
	*memStories
	loads atomic.Int32
}

func (c *countingSessions) Session() StoryRepository {
	return &countingSession{memSession: &memSession{m: c.memStories}, loads: &c.loads}
}

type countingSession struct {
	*memSession
	loads *atomic.Int32
}

func (s *countingSession) GetCategories(ctx context.Context) ([]string, error) {
	s.loads.Add(1)
	return s.memSession.GetCategories(ctx)
}

func TestCategoryCacheServesFromMemory(t *testing.T) {
	src := &countingSessions{memStories: newMemStories()}
	src.stories[1] = Story{ID: 1, Categories: "go"}
	c := NewCategoryCache(src, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		cats, err := c.Categories(ctx)
		if err != nil {
			t.Fatalf("Categories failed: %v", err)
		}
		if len(cats) != 1 || cats[0] != "go" {
			t.Fatalf("Categories = %v, want [go]", cats)
		}
	}
	if n := src.loads.Load(); n != 1 {
		t.Errorf("loads = %d, want 1", n)
	}
}

func TestCategoryCacheInvalidate(t *testing.T) {
	src := &countingSessions{memStories: newMemStories()}
	c := NewCategoryCache(src, time.Minute)
	ctx := context.Background()

	cats, err := c.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories failed: %v", err)
	}
	if cats == nil || len(cats) != 0 {
		t.Fatalf("Categories = %#v, want empty non-nil", cats)
	}

	src.stories[1] = Story{ID: 1, Categories: "rust"}
	c.Invalidate()
	cats, err = c.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories failed: %v", err)
	}
	if len(cats) != 1 || cats[0] != "rust" {
		t.Errorf("Categories = %v, want [rust]", cats)
	}
	if n := src.loads.Load(); n != 2 {
		t.Errorf("loads = %d, want 2", n)
	}
}

func TestCategoryCacheZeroTTLAlwaysReloads(t *testing.T) {
	src := &countingSessions{memStories: newMemStories()}
	c := NewCategoryCache(src, 0)
	ctx := context.Background()

	c.Categories(ctx)
	c.Categories(ctx)
	if n := src.loads.Load(); n != 2 {
		t.Errorf("loads = %d, want 2", n)
	}
}

func TestCategoryCacheDoesNotCacheErrors(t *testing.T) {
	src := &countingSessions{memStories: newMemStories()}
	src.getErr = errors.New("db down")
	c := NewCategoryCache(src, time.Minute)
	ctx := context.Background()

	if _, err := c.Categories(ctx); err == nil {
		t.Fatal("expected an error")
	}
	src.getErr = nil
	if _, err := c.Categories(ctx); err != nil {
		t.Fatalf("Categories after recovery failed: %v", err)
	}
}

func TestCategoryCacheConcurrentReads(t *testing.T) {
	src := &countingSessions{memStories: newMemStories()}
	src.stories[1] = Story{ID: 1, Categories: "a,b"}
	c := NewCategoryCache(src, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Categories(ctx); err != nil {
				t.Errorf("Categories failed: %v", err)
			}
		}()
	}
	wg.Wait()
	if n := src.loads.Load(); n != 1 {
		t.Errorf("loads = %d, want 1", n)
	}
}
