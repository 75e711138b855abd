package registry

import (
	"github.com/edgeflag/flagcore/client"
	"github.com/edgeflag/flagcore/errors"
)

// defaultRegistry backs the package-level convenience wrappers below,
// for callers that only ever need one registry per process.
var defaultRegistry *Registry

var errNoDefaultRegistry = errors.New("registry: default registry not initialized")

// SetDefaultRegistry installs r as the default registry.
func SetDefaultRegistry(r *Registry) {
	defaultRegistry = r
}

// DefaultRegistry returns the default registry, or nil if none has
// been installed yet.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds c under envName in the default registry.
func Register(envName string, c *client.Client) error {
	if defaultRegistry == nil {
		return errNoDefaultRegistry
	}
	return defaultRegistry.Register(envName, c)
}

// Get retrieves a client by name from the default registry.
func Get(envName string) (*client.Client, bool) {
	if defaultRegistry == nil {
		return nil, false
	}
	return defaultRegistry.Get(envName)
}

// Primary retrieves the primary client from the default registry.
func Primary() (*client.Client, bool) {
	if defaultRegistry == nil {
		return nil, false
	}
	return defaultRegistry.Primary()
}
