package cardnonce

import (
	"context"

	"github.com/iov-one/checkbook"
	"github.com/iov-one/checkbook/crypto"
	"github.com/iov-one/checkbook/errors"
)

// ErrNonceUsed is returned when a card digest is claimed for the second
// time.
var ErrNonceUsed = errors.Register(40, "Card nonce already used")

// Registry records the (card, digest) pairs that were consumed.
type Registry interface {
	// Claim marks the pair as used. It fails with ErrNonceUsed if the pair
	// was claimed before.
	Claim(ctx context.Context, db checkbook.KVStore, card checkbook.Address, digest []byte) error

	// IsUsed returns true if the pair was claimed.
	IsUsed(ctx context.Context, db checkbook.ReadOnlyKVStore, card checkbook.Address, digest []byte) (bool, error)
}

// Releaser is implemented by registries that keep their state outside of the
// unit of work. Release undoes a Claim of the same pair.
type Releaser interface {
	Release(ctx context.Context, card checkbook.Address, digest []byte) error
}

func validate(card checkbook.Address, digest []byte) error {
	if err := card.Validate(); err != nil {
		return errors.Wrap(err, "card")
	}
	if len(digest) != crypto.DigestLength {
		return errors.Wrapf(errors.ErrInput, "digest must be %d bytes, got %d", crypto.DigestLength, len(digest))
	}
	return nil
}
