// Package wallet owns the lifecycle of the SQLite database backing a
// tag store.
//
// A Wallet is created closed. Open opens (or creates) the database file and
// Close releases it; the Store is only available while the wallet is open.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/tagstore/internal/store"
)

var (
	// ErrNotOpen is returned when the store is requested from a closed wallet.
	ErrNotOpen = errors.New("wallet is not open")
	// ErrAlreadyOpen is returned when Open is called on an open wallet.
	ErrAlreadyOpen = errors.New("wallet is already open")
	// ErrPathRequired is returned when a wallet has no database path.
	ErrPathRequired = errors.New("wallet path is required")
)

// Wallet holds the database path and, while open, the Store on top of it.
type Wallet struct {
	mu     sync.Mutex
	path   string
	opts   []store.Option
	logger *slog.Logger
	store  *store.Store
}

// New returns a closed wallet for the database at path. opts are passed to
// store.Open when the wallet is opened.
func New(path string, opts ...store.Option) *Wallet {
	return &Wallet{path: path, opts: opts, logger: slog.Default()}
}

// Path returns the database path.
func (w *Wallet) Path() string {
	return w.path
}

// Open opens the database. It fails with ErrAlreadyOpen if the wallet is
// already open.
func (w *Wallet) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.path == "" {
		return ErrPathRequired
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.store != nil {
		return fmt.Errorf("%w: %s", ErrAlreadyOpen, w.path)
	}

	s, err := store.Open(w.path, w.opts...)
	if err != nil {
		return fmt.Errorf("open wallet %s: %w", w.path, err)
	}
	w.store = s
	w.logger.Debug("wallet opened", "path", w.path, "driver", s.Driver())
	return nil
}

// Close closes the database. Closing a closed wallet is a no-op.
func (w *Wallet) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.store == nil {
		return nil
	}

	err := w.store.Close()
	w.store = nil
	if err != nil {
		return fmt.Errorf("close wallet %s: %w", w.path, err)
	}
	w.logger.Debug("wallet closed", "path", w.path)
	return nil
}

// IsOpen reports whether the wallet is open.
func (w *Wallet) IsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store != nil
}

// Store returns the open store, or ErrNotOpen.
func (w *Wallet) Store() (*store.Store, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.store == nil {
		return nil, ErrNotOpen
	}
	return w.store, nil
}
