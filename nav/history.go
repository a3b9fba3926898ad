package nav

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
	"go.pilab.hu/hospital/storage"
)

const (
	// HistoryLimit is the number of paths kept.
	HistoryLimit = 10
	// RecentLimit is the number of paths shown as recent activity.
	RecentLimit = 6
)

// History is the bounded list of visited paths, persisted under storage.KeyNavHistory.
// Storage failures are logged and otherwise ignored: history never blocks navigation.
type History struct {
	kv storage.KV
	mu sync.Mutex
}

// NewHistory creates a history over kv.
func NewHistory(kv storage.KV) *History {
	return &History{kv: kv}
}

// Record appends path unless it repeats the last entry, keeping the newest HistoryLimit.
func (h *History) Record(ctx context.Context, path string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries := h.load(ctx)
	if n := len(entries); n > 0 && entries[n-1] == path {
		return
	}

	entries = append(entries, path)
	if len(entries) > HistoryLimit {
		entries = entries[len(entries)-HistoryLimit:]
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		return
	}

	if err := h.kv.Set(ctx, storage.KeyNavHistory, string(raw)); err != nil {
		log.Ctx(ctx).Debug().Err(err).Msg("failed to persist navigation history")
	}
}

// Entries returns the stored paths, oldest first.
func (h *History) Entries(ctx context.Context) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.load(ctx)
}

// Recent returns up to RecentLimit paths, newest first.
func (h *History) Recent(ctx context.Context) []string {
	entries := h.Entries(ctx)
	slices.Reverse(entries)

	if len(entries) > RecentLimit {
		entries = entries[:RecentLimit]
	}

	return entries
}

// Clear drops every entry, so a following sign-in starts with no recent activity.
func (h *History) Clear(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.kv.Delete(ctx, storage.KeyNavHistory); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("failed to clear navigation history")
	}
}

// load treats missing and malformed history as empty.
func (h *History) load(ctx context.Context) []string {
	raw, err := h.kv.Get(ctx, storage.KeyNavHistory)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Ctx(ctx).Debug().Err(err).Msg("failed to read navigation history")
		}

		return nil
	}

	var entries []string
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		log.Ctx(ctx).Debug().Err(err).Msg("discarding malformed navigation history")
		return nil
	}

	return entries
}
