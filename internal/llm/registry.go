package llm

import "sync"

// registry holds the vendors a Caller can route to, in the static priority
// order they were registered. Health scoring re-sorts that order per call;
// registration order only matters as the tiebreak and as the order used
// before any vendor has call history.
type registry struct {
	mu      sync.RWMutex
	order   []string
	vendors map[string]Vendor
	stats   map[string]*vendorStats
}

func newRegistry(vendors []Vendor) *registry {
	r := &registry{
		vendors: make(map[string]Vendor, len(vendors)),
		stats:   make(map[string]*vendorStats, len(vendors)),
	}
	for _, v := range vendors {
		r.order = append(r.order, v.Name())
		r.vendors[v.Name()] = v
		r.stats[v.Name()] = newVendorStats()
	}
	return r
}

func (r *registry) get(name string) Vendor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.vendors[name]
}

func (r *registry) statsFor(name string) *vendorStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats[name]
}

func (r *registry) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
