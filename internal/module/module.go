package module

import (
	"errors"
	"fmt"

	"github.com/roach88/tagstore/internal/store"
	"github.com/roach88/tagstore/internal/wallet"
)

// StorageService is the storage-service capability. It resolves the store
// from the wallet on each call, so it may be registered before the wallet
// is opened.
type StorageService struct {
	wallet *wallet.Wallet
}

// Store returns the wallet's open store.
func (s *StorageService) Store() (*store.Store, error) {
	return s.wallet.Store()
}

// Wallet returns the wallet backing the service.
func (s *StorageService) Wallet() *wallet.Wallet {
	return s.wallet
}

// Register claims the wallet and storage-service capabilities for w.
// Nothing is registered if either capability already has a provider.
func Register(reg *Registry, w *wallet.Wallet) error {
	if reg == nil {
		return ErrRegistryRequired
	}
	if w == nil {
		return errors.New("wallet is required")
	}
	return reg.Provide(map[Capability]any{
		CapabilityWallet:         w,
		CapabilityStorageService: &StorageService{wallet: w},
	})
}

// WalletFrom resolves the wallet capability.
func WalletFrom(reg *Registry) (*wallet.Wallet, error) {
	return resolve[*wallet.Wallet](reg, CapabilityWallet)
}

// StorageFrom resolves the storage-service capability.
func StorageFrom(reg *Registry) (*StorageService, error) {
	return resolve[*StorageService](reg, CapabilityStorageService)
}

func resolve[T any](reg *Registry, c Capability) (T, error) {
	var zero T
	if reg == nil {
		return zero, ErrRegistryRequired
	}
	p, ok := reg.Lookup(c)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrCapabilityNotRegistered, c)
	}
	typed, ok := p.(T)
	if !ok {
		return zero, fmt.Errorf("capability %s: provider is %T, want %T", c, p, zero)
	}
	return typed, nil
}
