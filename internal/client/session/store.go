// Package session holds the client-side session state: a durable store for
// the credential and last-known identity, and the monitor that reconciles
// that local state against server-confirmed validity.
package session

import (
	"context"
	"errors"

	"github.com/arelunainstituto/financeerp/internal/domain"
)

// Record is the client-local session record. Identity is present if and
// only if the token is present and was last verified successfully.
type Record struct {
	Token    string
	Identity domain.Identity
}

// ErrPersistence wraps storage-layer faults on Save/Clear. Faults on Load
// are never surfaced; the store degrades to empty instead.
var ErrPersistence = errors.New("session persistence fault")

// Store is the durable local holder of the session record.
//
// Contract:
//   - Load returns the record, or nil when empty. Partial or corrupt state
//     is purged and reported as empty; storage faults degrade to empty.
//   - Save persists token and identity as one logical transaction: a
//     concurrent Load never observes one without the other.
//   - Clear purges both entries and is idempotent.
type Store interface {
	Load(ctx context.Context) (*Record, error)
	Save(ctx context.Context, token string, identity domain.Identity) error
	Clear(ctx context.Context) error
}
