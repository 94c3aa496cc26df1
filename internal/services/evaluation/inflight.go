package evaluation

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// InFlight tracks which sessions have an evaluation running or queued
type InFlight struct {
	running *cache.Cache
}

// NewInFlight creates an empty tracker
func NewInFlight() *InFlight {
	return &InFlight{running: cache.New(cache.NoExpiration, time.Minute)}
}

// Acquire marks key as running. It returns false if key is already running;
// otherwise the caller must call the returned release func when done.
func (f *InFlight) Acquire(key string) (release func(), ok bool) {
	return f.Hold(key, cache.NoExpiration)
}

// Hold is Acquire for work that finishes elsewhere: the mark lapses after
// ttl unless released sooner.
func (f *InFlight) Hold(key string, ttl time.Duration) (release func(), ok bool) {
	if err := f.running.Add(key, struct{}{}, ttl); err != nil {
		return nil, false
	}
	var once sync.Once
	return func() {
		once.Do(func() { f.running.Delete(key) })
	}, true
}
