// Package cache provides a small generic TTL cache used to hold fetched rate
// tables for a short time when enabled.
package cache

import (
	"context"
	"log/slog"
	"time"
)

// Cache is the lookup surface the rate fetcher depends on.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically removes expired entries from registered caches.
type Janitor struct {
	caches []Cleaner
	stop   chan struct{}
	done   chan struct{}
}

func NewJanitor(caches ...Cleaner) *Janitor {
	return &Janitor{
		caches: caches,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start runs the cleanup loop every interval until Stop is called.
func (j *Janitor) Start(interval time.Duration) {
	go j.run(interval)
}

func (j *Janitor) run(interval time.Duration) {
	defer close(j.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed := 0
			for _, c := range j.caches {
				removed += c.CleanExpired()
			}
			if removed > 0 {
				slog.DebugContext(context.Background(), "Expired cache entries removed", "count", removed)
			}
		case <-j.stop:
			return
		}
	}
}

// Stop ends the cleanup loop and waits for it to exit. It must be called at
// most once, and only after Start.
func (j *Janitor) Stop() {
	close(j.stop)
	<-j.done
}
