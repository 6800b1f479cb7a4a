package blankcheck

import (
	"github.com/iov-one/checkbook"
	"github.com/iov-one/checkbook/errors"
	"github.com/iov-one/checkbook/orm"
)

// NonceBucket stores a CheckNonce for every redeemed check, keyed by the
// account and the verification key.
type NonceBucket struct {
	orm.ModelBucket
}

// NewNonceBucket returns a bucket stored under the "chknonce" prefix.
func NewNonceBucket() *NonceBucket {
	return &NonceBucket{
		ModelBucket: orm.NewModelBucket("chknonce", &CheckNonce{}),
	}
}

// Peek returns who redeemed the check, or nil if it was not redeemed yet.
func (b *NonceBucket) Peek(db checkbook.ReadOnlyKVStore, account, verificationKey checkbook.Address) (checkbook.Address, error) {
	var n CheckNonce
	switch err := b.One(db, checkKey(account, verificationKey), &n); {
	case errors.ErrNotFound.Is(err):
		return nil, nil
	case err != nil:
		return nil, err
	}
	return n.Redeemer, nil
}

// Claim records the redeemer of the check. It fails with ErrNonceUsed if the
// check was redeemed before.
func (b *NonceBucket) Claim(db checkbook.KVStore, account, verificationKey, redeemer checkbook.Address) error {
	n := CheckNonce{
		Account:         account,
		VerificationKey: verificationKey,
		Redeemer:        redeemer,
	}
	err := b.Insert(db, checkKey(account, verificationKey), &n)
	if errors.ErrDuplicate.Is(err) {
		return errors.Wrapf(ErrNonceUsed, "check %s of %s", verificationKey, account)
	}
	return err
}

func checkKey(account, verificationKey checkbook.Address) []byte {
	key := make([]byte, 0, len(account)+len(verificationKey))
	key = append(key, account...)
	return append(key, verificationKey...)
}
