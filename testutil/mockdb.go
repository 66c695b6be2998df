package testutil

import (
	"testing"

	"github.com/iksnae/branch-chat/internal"
)

// CreateInMemoryCache opens a snapshot cache backed by an in-memory database
func CreateInMemoryCache(t *testing.T) *internal.CacheManager {
	t.Helper()
	cm, err := internal.NewCacheManager(":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory cache: %v", err)
	}
	t.Cleanup(func() { _ = cm.Close() })
	return cm
}
