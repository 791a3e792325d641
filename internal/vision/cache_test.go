// v0
// internal/vision/cache_test.go
package vision

import (
	"testing"
	"time"
)

func TestCacheEmptyBeforeFirstPut(t *testing.T) {
	c := NewLatestCache()
	got, ok := c.Get()
	if ok {
		t.Fatalf("cache must report empty before any put, got %+v", got)
	}
	if got != (Result{}) {
		t.Fatalf("empty get must return the zero result, got %+v", got)
	}
}

func TestCachePutOverwrites(t *testing.T) {
	c := NewLatestCache()
	first := Result{ID: "a", Label: LabelSitting, ComputedAt: time.Unix(100, 0)}
	second := Result{ID: "b", Label: LabelRunning, ComputedAt: time.Unix(200, 0)}

	c.Put(first)
	c.Put(second)

	got, ok := c.Get()
	if !ok {
		t.Fatalf("cache must report a value after put")
	}
	if got != second {
		t.Fatalf("last put must win: got %+v, want %+v", got, second)
	}
}
