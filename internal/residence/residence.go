package residence

import (
	"context"
	"sync"

	"upload-registry/internal/domain/upload"
)

// Residence is a storage backend able to destroy the object an upload record
// describes. Destroy must succeed when the object is already gone.
type Residence interface {
	Destroy(ctx context.Context, u upload.Upload) error
}

type registryKey struct {
	name      string
	namespace string
	location  string
}

// Registry maps (provider name, namespace, location) to residences. An empty
// namespace means the default one; an empty location at registration matches
// any location inside that namespace. Lookups never leave the namespace.
type Registry struct {
	mu         sync.RWMutex
	residences map[registryKey]Residence
}

func NewRegistry() *Registry {
	return &Registry{residences: make(map[registryKey]Residence)}
}

func (r *Registry) Register(name string, opts upload.ResidenceOptions, res Residence) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.residences[registryKey{name: name, namespace: namespaceOf(opts), location: opts.Location}] = res
}

// Resolve looks up the residence for name and opts: exact match first, then
// the namespace-wide residence.
func (r *Registry) Resolve(name string, opts upload.ResidenceOptions) (Residence, bool) {
	if name == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	namespace := namespaceOf(opts)
	candidates := []registryKey{
		{name: name, namespace: namespace, location: opts.Location},
		{name: name, namespace: namespace},
	}
	for _, key := range candidates {
		if res, ok := r.residences[key]; ok {
			return res, true
		}
	}
	return nil, false
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.residences)
}

func namespaceOf(opts upload.ResidenceOptions) string {
	if opts.Namespace == "" {
		return upload.DefaultNamespace
	}
	return opts.Namespace
}
