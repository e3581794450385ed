package chain

import (
	"fmt"
)

// Registry selects a BlockSource by request origin. Local frontend origins
// resolve to the local dev chain; everything else falls through to the
// default network.
type Registry struct {
	sources        map[string]BlockSource
	originNetworks map[string]string
	defaultNetwork string
}

// NewRegistry builds a Registry. originNetworks maps request origins to
// network names; every referenced network must have a source.
func NewRegistry(sources map[string]BlockSource, originNetworks map[string]string, defaultNetwork string) (*Registry, error) {
	if _, ok := sources[defaultNetwork]; !ok {
		return nil, fmt.Errorf("no block source for default network %q", defaultNetwork)
	}
	for origin, network := range originNetworks {
		if _, ok := sources[network]; !ok {
			return nil, fmt.Errorf("origin %q maps to network %q with no block source", origin, network)
		}
	}
	return &Registry{
		sources:        sources,
		originNetworks: originNetworks,
		defaultNetwork: defaultNetwork,
	}, nil
}

// ForOrigin returns the block source for a request origin.
func (r *Registry) ForOrigin(origin string) BlockSource {
	if network, ok := r.originNetworks[origin]; ok {
		return r.sources[network]
	}
	return r.sources[r.defaultNetwork]
}
