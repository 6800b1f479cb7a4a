package cardnonce

import (
	"context"

	"github.com/iov-one/checkbook"
	"github.com/iov-one/checkbook/errors"
	"github.com/iov-one/checkbook/orm"
)

// Nonce is the record of a consumed card digest.
type Nonce struct {
	Card   checkbook.Address
	Digest []byte
}

// Validate ensures the record is complete.
func (n *Nonce) Validate() error {
	return validate(n.Card, n.Digest)
}

// Bucket is a Registry that persists claims in the KV store it is given.
type Bucket struct {
	orm.ModelBucket
}

var _ Registry = (*Bucket)(nil)

// NewBucket returns a registry stored under the "cardnonce" prefix.
func NewBucket() *Bucket {
	return &Bucket{
		ModelBucket: orm.NewModelBucket("cardnonce", &Nonce{}),
	}
}

// Claim stores the pair. Writes happen in db, so discarding db discards the
// claim as well.
func (b *Bucket) Claim(ctx context.Context, db checkbook.KVStore, card checkbook.Address, digest []byte) error {
	if err := validate(card, digest); err != nil {
		return err
	}
	err := b.Insert(db, nonceKey(card, digest), &Nonce{Card: card, Digest: digest})
	if errors.ErrDuplicate.Is(err) {
		return errors.Wrapf(ErrNonceUsed, "card %s", card)
	}
	return err
}

// IsUsed returns true if the pair was claimed in db.
func (b *Bucket) IsUsed(ctx context.Context, db checkbook.ReadOnlyKVStore, card checkbook.Address, digest []byte) (bool, error) {
	if err := validate(card, digest); err != nil {
		return false, err
	}
	return b.Has(db, nonceKey(card, digest))
}

// nonceKey joins two fixed length values, so it is unambiguous.
func nonceKey(card checkbook.Address, digest []byte) []byte {
	key := make([]byte, 0, len(card)+len(digest))
	key = append(key, card...)
	return append(key, digest...)
}
