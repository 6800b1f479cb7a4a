package nft

import (
	"context"

	"github.com/iov-one/checkbook"
	"github.com/iov-one/checkbook/errors"
	"github.com/iov-one/checkbook/orm"
	"github.com/iov-one/checkbook/x/blankcheck"
)

// ErrNotOwner is returned when a token is moved from an address that does
// not own it.
var ErrNotOwner = errors.Register(70, "not owner")

// maxTokenIDLength bounds the size of a token id.
const maxTokenIDLength = 256

// Token is a unique asset.
type Token struct {
	ID    []byte
	Owner checkbook.Address
}

// Validate ensures the token has an id and an owner.
func (t *Token) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "ID", validateID(t.ID))
	errs = errors.AppendField(errs, "Owner", t.Owner.Validate())
	return errs
}

func validateID(id []byte) error {
	switch n := len(id); {
	case n == 0:
		return errors.Wrap(errors.ErrEmpty, "token id")
	case n > maxTokenIDLength:
		return errors.Wrapf(errors.ErrInput, "token id longer than %d", maxTokenIDLength)
	}
	return nil
}

// Custodian keeps the ownership of the tokens of a single asset contract.
type Custodian struct {
	asset  checkbook.Address
	bucket orm.ModelBucket
}

var _ blankcheck.Custodian = (*Custodian)(nil)

// NewCustodian returns the ledger of the asset.
func NewCustodian(asset checkbook.Address) *Custodian {
	return &Custodian{
		asset:  asset,
		bucket: orm.NewModelBucket("nft", &Token{}),
	}
}

func (c *Custodian) key(id []byte) []byte {
	key := make([]byte, 0, len(c.asset)+len(id))
	key = append(key, c.asset...)
	return append(key, id...)
}

// OwnerOf returns the owner of the token. It fails with ErrNotFound for an
// unknown token.
func (c *Custodian) OwnerOf(db checkbook.ReadOnlyKVStore, id []byte) (checkbook.Address, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	var t Token
	if err := c.bucket.One(db, c.key(id), &t); err != nil {
		return nil, err
	}
	return t.Owner, nil
}

// Mint creates a new token. It fails with ErrDuplicate if the id is taken.
func (c *Custodian) Mint(db checkbook.KVStore, id []byte, owner checkbook.Address) error {
	return c.bucket.Insert(db, c.key(id), &Token{ID: id, Owner: owner})
}

// Transfer moves the token named by the face value.
func (c *Custodian) Transfer(ctx context.Context, db checkbook.KVStore, from, to checkbook.Address, value blankcheck.FaceValue) error {
	if value.IsFungible() {
		return errors.Wrap(errors.ErrType, "nft moves tokens only")
	}
	owner, err := c.OwnerOf(db, value.TokenID)
	switch {
	case errors.ErrNotFound.Is(err):
		return errors.Wrapf(ErrNotOwner, "token %X does not exist", []byte(value.TokenID))
	case err != nil:
		return err
	case !owner.Equals(from):
		return errors.Wrapf(ErrNotOwner, "token %X is owned by %s", []byte(value.TokenID), owner)
	}
	if err := c.bucket.Put(db, c.key(value.TokenID), &Token{ID: value.TokenID, Owner: to}); err != nil {
		return err
	}
	checkbook.GetLogger(ctx).Debug("nft transfer", "from", from, "to", to, "token", value.TokenID)
	return nil
}
