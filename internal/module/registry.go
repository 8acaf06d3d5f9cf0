// Package module registers a wallet and its storage service with a host
// capability registry.
//
// A capability is a named service contract that resolves to exactly one
// provider. Registration is all-or-nothing: Register checks every
// capability it is about to claim before claiming any, and fails with
// ErrCapabilityAlreadyRegistered if another provider holds one.
package module

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Capability names a service contract.
type Capability string

const (
	// CapabilityWallet resolves to the *wallet.Wallet owning the database.
	CapabilityWallet Capability = "wallet"
	// CapabilityStorageService resolves to the *StorageService.
	CapabilityStorageService Capability = "storage-service"
)

var (
	// ErrCapabilityAlreadyRegistered indicates a second provider for a
	// capability.
	ErrCapabilityAlreadyRegistered = errors.New("capability already registered")
	// ErrRegistryRequired indicates a missing registry.
	ErrRegistryRequired = errors.New("registry is required")
	// ErrCapabilityNotRegistered indicates a lookup for an unclaimed
	// capability.
	ErrCapabilityNotRegistered = errors.New("capability not registered")
)

// CapabilityError reports the capabilities that already had a provider.
type CapabilityError struct {
	Capabilities []Capability
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s: %v", ErrCapabilityAlreadyRegistered, e.Capabilities)
}

func (e *CapabilityError) Unwrap() error {
	return ErrCapabilityAlreadyRegistered
}

// Registry maps capabilities to providers. The zero value is not usable;
// create one with NewRegistry and pass it explicitly.
type Registry struct {
	mu        sync.RWMutex
	providers map[Capability]any
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[Capability]any)}
}

// Conflicts returns the capabilities in wanted that already appear in
// registered, in the order they were wanted. It does not modify either
// argument.
func Conflicts(registered []Capability, wanted []Capability) []Capability {
	var out []Capability
	for _, c := range wanted {
		if slices.Contains(registered, c) {
			out = append(out, c)
		}
	}
	return out
}

// Provide registers every provider in providers, or none of them if any
// capability is already claimed.
func (r *Registry) Provide(providers map[Capability]any) error {
	if r == nil {
		return ErrRegistryRequired
	}

	wanted := make([]Capability, 0, len(providers))
	for c := range providers {
		wanted = append(wanted, c)
	}
	slices.Sort(wanted)

	r.mu.Lock()
	defer r.mu.Unlock()

	if conflicts := Conflicts(r.capabilitiesLocked(), wanted); len(conflicts) > 0 {
		return &CapabilityError{Capabilities: conflicts}
	}
	for c, p := range providers {
		r.providers[c] = p
	}
	return nil
}

// Lookup returns the provider for c.
func (r *Registry) Lookup(c Capability) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[c]
	return p, ok
}

// Capabilities returns the registered capabilities in sorted order.
func (r *Registry) Capabilities() []Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.capabilitiesLocked()
}

func (r *Registry) capabilitiesLocked() []Capability {
	out := make([]Capability, 0, len(r.providers))
	for c := range r.providers {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}
