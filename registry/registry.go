// Package registry manages a primary client and its secondary
// mobile-key environments as one unit: identify, offline/online, and
// flush all fan out to every registered client, while Get/Primary let
// callers reach a specific environment's client directly.
package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/edgeflag/flagcore/client"
	"github.com/edgeflag/flagcore/errors"
	"github.com/edgeflag/flagcore/internal/version"
	"github.com/edgeflag/flagcore/logger"
	"github.com/edgeflag/flagcore/model"
)

// Registry holds every environment's Client, keyed by name, plus the
// name of the primary environment.
type Registry struct {
	mu         sync.RWMutex
	clients    map[string]*client.Client
	primaryKey string
	sdkVersion string
}

// NewRegistry returns an empty Registry whose primary environment is
// named primaryKey. RegisterVersioned checks its constraint against
// internal/version.SDKVersion.
func NewRegistry(primaryKey string) *Registry {
	return &Registry{
		clients:    make(map[string]*client.Client),
		primaryKey: primaryKey,
		sdkVersion: version.SDKVersion,
	}
}

// Register adds c under envName with no version constraint.
func (r *Registry) Register(envName string, c *client.Client) error {
	return r.RegisterVersioned(envName, c, "")
}

// RegisterVersioned adds c under envName, rejecting the registration
// if minSDKVersion is non-empty and not satisfied by the running SDK
// version — the same version-gated registration domains/registry.go
// does for plugins, applied here to environments instead.
func (r *Registry) RegisterVersioned(envName string, c *client.Client, minSDKVersion string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients[envName]; exists {
		return errors.Newf("environment already registered: %s", envName)
	}

	if minSDKVersion != "" {
		running, err := semver.NewVersion(r.sdkVersion)
		if err != nil {
			return errors.Wrapf(err, "invalid running SDK version %q", r.sdkVersion)
		}
		constraint, err := semver.NewConstraint(minSDKVersion)
		if err != nil {
			return errors.Wrapf(err, "invalid version constraint %q for environment %s", minSDKVersion, envName)
		}
		if !constraint.Check(running) {
			return errors.Newf("environment %s requires SDK %s, running %s", envName, minSDKVersion, r.sdkVersion)
		}
	}

	r.clients[envName] = c
	return nil
}

// Get retrieves the client registered under envName.
func (r *Registry) Get(envName string) (*client.Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[envName]
	return c, ok
}

// Primary retrieves the client registered under this registry's
// primary environment name.
func (r *Registry) Primary() (*client.Client, bool) {
	return r.Get(r.primaryKey)
}

// Names returns every registered environment name in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNamesLocked()
}

func (r *Registry) sortedNamesLocked() []string {
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) eachLocked() []*client.Client {
	names := r.sortedNamesLocked()
	clients := make([]*client.Client, 0, len(names))
	for _, name := range names {
		clients = append(clients, r.clients[name])
	}
	return clients
}

// SetOffline puts every registered client into offline mode.
func (r *Registry) SetOffline(offline bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.eachLocked() {
		c.SetOffline(offline)
	}
}

// SetOnline is shorthand for SetOffline(false) on every client.
func (r *Registry) SetOnline() {
	r.SetOffline(false)
}

// Identify calls Client.Identify on every registered client in sorted
// name order, so each one installs user as the shared user and
// reinitializes its connection. An error from the first client in that
// order is returned; errors from the rest are logged.
func (r *Registry) Identify(ctx context.Context, user model.User) error {
	r.mu.RLock()
	clients := r.eachLocked()
	r.mu.RUnlock()

	if len(clients) == 0 {
		return errors.New("no environments registered")
	}

	if err := clients[0].Identify(ctx, user); err != nil {
		return err
	}
	for _, c := range clients[1:] {
		if err := c.Identify(ctx, user); err != nil {
			logger.Warnw("registry: identify failed for environment", logger.FieldEnvironment, c.Name(), logger.FieldError, err.Error())
		}
	}
	return nil
}

// Flush signals every registered client's event sender to flush
// without waiting for any of them to complete.
func (r *Registry) Flush() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.eachLocked() {
		c.Flush()
	}
}

// Close closes every registered client and, when called with the
// primary still registered, clears the registry's map afterward.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	clients := r.eachLocked()
	_, hadPrimary := r.clients[r.primaryKey]
	r.mu.Unlock()

	var firstErr error
	for _, c := range clients {
		if err := c.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if hadPrimary {
		r.mu.Lock()
		r.clients = make(map[string]*client.Client)
		r.mu.Unlock()
	}

	return firstErr
}
