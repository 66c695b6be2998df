package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/iksnae/branch-chat/internal"
	"github.com/iksnae/branch-chat/internal/api"
	"github.com/iksnae/branch-chat/internal/chat"
	"github.com/iksnae/branch-chat/internal/stream"
)

func newAPIClient() *api.Client {
	return api.NewClient(cfg.BaseURL, api.WithTimeout(cfg.RequestTimeout))
}

func newEngine(client *api.Client) *stream.Engine {
	return stream.NewEngine(client.URL(api.ChatPath), stream.WithIdleTimeout(cfg.IdleTimeout))
}

// openCache opens the snapshot cache. Online commands keep working without
// it; offline commands cannot.
func openCache() (*internal.CacheManager, error) {
	cm, err := internal.NewCacheManager(cfg.CachePath)
	if err != nil {
		if offline {
			return nil, err
		}
		internal.LogWarn("Snapshot cache unavailable: %v", err)
		return nil, nil
	}
	return cm, nil
}

func closeCache(cm *internal.CacheManager) {
	if cm == nil {
		return
	}
	if err := cm.Close(); err != nil {
		internal.LogWarn("Failed to close cache: %v", err)
	}
}

// loadView opens the cache and loads one session. The returned cleanup
// closes the cache.
func loadView(ctx context.Context, sessionID int64) (*chat.View, func(), error) {
	cm, err := openCache()
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { closeCache(cm) }

	view := newView(sessionID, newAPIClient(), cm)
	if err := view.Load(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}
	if view.FromCache() {
		internal.LogInfo("Showing cached snapshot of session %d", sessionID)
	}
	return view, cleanup, nil
}

func parseID(kind, arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", kind, arg)
	}
	return id, nil
}

func newView(sessionID int64, client *api.Client, cm *internal.CacheManager) *chat.View {
	opts := []chat.Option{
		chat.WithLayout(cfg.Layout()),
		chat.WithOffline(offline),
	}
	if cm != nil {
		opts = append(opts, chat.WithSnapshots(cm))
	}
	return chat.NewView(sessionID, client, newEngine(client), opts...)
}
