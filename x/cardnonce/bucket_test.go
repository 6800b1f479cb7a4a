package cardnonce

import (
	"context"
	"testing"

	"github.com/iov-one/checkbook/checkbooktest"
	"github.com/iov-one/checkbook/checkbooktest/assert"
	"github.com/iov-one/checkbook/errors"
	"github.com/iov-one/checkbook/store"
)

func TestBucketClaim(t *testing.T) {
	ctx := context.Background()
	db := store.MemStore()
	b := NewBucket()

	card := checkbooktest.RandomAddress(t)
	other := checkbooktest.RandomAddress(t)
	digest := checkbooktest.RandomDigest(t)

	used, err := b.IsUsed(ctx, db, card, digest)
	assert.Nil(t, err)
	assert.Equal(t, false, used)

	assert.Nil(t, b.Claim(ctx, db, card, digest))
	assert.IsErr(t, ErrNonceUsed, b.Claim(ctx, db, card, digest))

	used, err = b.IsUsed(ctx, db, card, digest)
	assert.Nil(t, err)
	assert.Equal(t, true, used)

	// The scope is the pair, another card may use the same digest.
	assert.Nil(t, b.Claim(ctx, db, other, digest))
}

func TestBucketClaimIsRolledBack(t *testing.T) {
	ctx := context.Background()
	db := store.MemStore()
	b := NewBucket()
	card := checkbooktest.RandomAddress(t)
	digest := checkbooktest.RandomDigest(t)

	cache := db.CacheWrap()
	assert.Nil(t, b.Claim(ctx, cache, card, digest))
	cache.Discard()

	assert.Nil(t, b.Claim(ctx, db, card, digest))
}

func TestBucketInvalidInput(t *testing.T) {
	ctx := context.Background()
	db := store.MemStore()
	b := NewBucket()
	card := checkbooktest.RandomAddress(t)
	digest := checkbooktest.RandomDigest(t)

	cases := map[string]struct {
		card    []byte
		digest  []byte
		wantErr *errors.Error
	}{
		"missing card":   {card: nil, digest: digest, wantErr: errors.ErrEmpty},
		"short card":     {card: card[:5], digest: digest, wantErr: errors.ErrInput},
		"short digest":   {card: card, digest: digest[:31], wantErr: errors.ErrInput},
		"missing digest": {card: card, digest: nil, wantErr: errors.ErrInput},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.IsErr(t, tc.wantErr, b.Claim(ctx, db, tc.card, tc.digest))
			_, err := b.IsUsed(ctx, db, tc.card, tc.digest)
			assert.IsErr(t, tc.wantErr, err)
		})
	}
}
