package ratelimit

import "sync"

// Registry owns one Bucket per provider identity. Every caller that
// targets the same provider must go through the same Bucket, so buckets
// are created once and never implicitly recreated. Construct a single
// Registry at startup and inject it into anything that scores.
type Registry struct {
	mu       sync.Mutex
	buckets  map[string]*Bucket
	defaults BucketConfig
}

// NewRegistry creates a registry with per-provider overrides. Providers
// not listed fall back to defaults.
func NewRegistry(defaults BucketConfig, overrides map[string]BucketConfig) *Registry {
	r := &Registry{
		buckets:  make(map[string]*Bucket),
		defaults: defaults,
	}
	for id, cfg := range overrides {
		r.buckets[id] = NewBucket(cfg)
	}
	return r
}

// Get returns the bucket for the given provider id, creating it from the
// default configuration on first use. The same pointer is returned for
// the lifetime of the registry.
func (r *Registry) Get(providerID string) *Bucket {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.buckets[providerID]; ok {
		return b
	}
	b := NewBucket(r.defaults)
	r.buckets[providerID] = b
	return b
}
