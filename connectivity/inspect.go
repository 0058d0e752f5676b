package connectivity

import (
	"iter"
	"maps"
	"slices"
)

// ServiceInfo describes a registered intent.
type ServiceInfo struct {
	Name     string `json:"name"`
	HasLocal bool   `json:"has_local"`
	Allowed  bool   `json:"allowed"`
}

// ListServices returns an iterator over registered intents in name order.
func (r *Router) ListServices() iter.Seq[ServiceInfo] {
	return func(yield func(ServiceInfo) bool) {
		r.mu.RLock()
		names := slices.Sorted(maps.Keys(r.localHandlers))
		infos := make([]ServiceInfo, 0, len(names))
		for _, name := range names {
			infos = append(infos, ServiceInfo{Name: name, HasLocal: true, Allowed: r.allowedLocked(name)})
		}
		r.mu.RUnlock()

		for _, info := range infos {
			if !yield(info) {
				return
			}
		}
	}
}

// Inspect returns information about a single intent.
// Returns ok=false if no handler is registered for it.
func (r *Router) Inspect(service string) (info ServiceInfo, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, has := r.localHandlers[service]; !has {
		return ServiceInfo{}, false
	}
	return ServiceInfo{Name: service, HasLocal: true, Allowed: r.allowedLocked(service)}, true
}
