package blankcheck

import (
	"testing"

	"github.com/iov-one/checkbook/checkbooktest"
	"github.com/iov-one/checkbook/checkbooktest/assert"
	"github.com/iov-one/checkbook/errors"
	"github.com/iov-one/checkbook/store"
)

func TestNonceBucket(t *testing.T) {
	db := store.MemStore()
	b := NewNonceBucket()
	account := checkbooktest.RandomAddress(t)
	key := checkbooktest.RandomAddress(t)
	alice := checkbooktest.RandomAddress(t)
	bob := checkbooktest.RandomAddress(t)

	got, err := b.Peek(db, account, key)
	assert.Nil(t, err)
	assert.Nil(t, got)

	assert.Nil(t, b.Claim(db, account, key, alice))
	assert.IsErr(t, ErrNonceUsed, b.Claim(db, account, key, bob))

	got, err = b.Peek(db, account, key)
	assert.Nil(t, err)
	assert.Equal(t, alice, got)

	// The same key of another account is a different check.
	other := checkbooktest.RandomAddress(t)
	assert.Nil(t, b.Claim(db, other, key, bob))

	assert.FieldError(t, b.Claim(db, account, checkbooktest.RandomAddress(t), nil), "Redeemer", errors.ErrEmpty)
}
