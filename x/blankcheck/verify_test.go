package blankcheck

import (
	"testing"

	"github.com/iov-one/checkbook"
	"github.com/iov-one/checkbook/checkbooktest"
	"github.com/iov-one/checkbook/checkbooktest/assert"
	"github.com/iov-one/checkbook/coin"
	"github.com/iov-one/checkbook/errors"
)

func TestVerifySigners(t *testing.T) {
	keys, addrs := checkbooktest.NewKeys(t, 3)
	value := FaceValue{Amount: coin.NewCoinp(1, 0, "ETH")}
	vkey := checkbooktest.RandomAddress(t)
	digest := BlankCheckDigest(addrs[2], value, vkey)
	other := BlankCheckDigest(addrs[2], value, checkbooktest.RandomAddress(t))

	sig0 := checkbooktest.Sign(t, keys[0], digest)
	sig1 := checkbooktest.Sign(t, keys[1], digest)
	sigOther := checkbooktest.Sign(t, keys[1], other)

	cases := map[string]struct {
		declared []checkbook.Address
		sigs     [][]byte
		wantErr  *errors.Error
	}{
		"all signatures match": {
			declared: addrs[:2],
			sigs:     [][]byte{sig0, sig1},
		},
		"extra signatures are ignored": {
			declared: addrs[:1],
			sigs:     [][]byte{sig0, sig1},
		},
		"signatures in the wrong order": {
			declared: addrs[:2],
			sigs:     [][]byte{sig1, sig0},
			wantErr:  ErrSignerMismatch,
		},
		"signature of another check": {
			declared: addrs[:2],
			sigs:     [][]byte{sig0, sigOther},
			wantErr:  ErrSignerMismatch,
		},
		"missing signature": {
			declared: addrs[:2],
			sigs:     [][]byte{sig0},
			wantErr:  ErrSignerMismatch,
		},
		"malformed signature": {
			declared: addrs[:1],
			sigs:     [][]byte{sig0[:10]},
			wantErr:  ErrSignerMismatch,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := VerifySigners(digest, tc.declared, tc.sigs)
			if tc.wantErr == nil {
				assert.Nil(t, err)
			} else {
				assert.IsErr(t, tc.wantErr, err)
			}
		})
	}
}

func TestVerifyCardSigners(t *testing.T) {
	keys, cards := checkbooktest.NewKeys(t, 2)
	d0 := checkbooktest.RandomDigest(t)
	d1 := checkbooktest.RandomDigest(t)
	sig0 := checkbooktest.Sign(t, keys[0], d0)
	sig1 := checkbooktest.Sign(t, keys[1], d1)

	cases := map[string]struct {
		digests [][]byte
		sigs    [][]byte
		wantErr *errors.Error
	}{
		"each card signs its digest": {
			digests: [][]byte{d0, d1},
			sigs:    [][]byte{sig0, sig1},
		},
		"digests swapped": {
			digests: [][]byte{d1, d0},
			sigs:    [][]byte{sig0, sig1},
			wantErr: ErrCardMismatch,
		},
		"missing digest": {
			digests: [][]byte{d0},
			sigs:    [][]byte{sig0, sig1},
			wantErr: ErrCardMismatch,
		},
		"missing signature": {
			digests: [][]byte{d0, d1},
			sigs:    [][]byte{sig0},
			wantErr: ErrCardMismatch,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := VerifyCardSigners(tc.digests, cards, tc.sigs)
			if tc.wantErr == nil {
				assert.Nil(t, err)
			} else {
				assert.IsErr(t, tc.wantErr, err)
			}
		})
	}
}

func TestRejectDuplicates(t *testing.T) {
	a := checkbooktest.RandomAddress(t)
	b := checkbooktest.RandomAddress(t)

	assert.Nil(t, RejectDuplicates(nil))
	assert.Nil(t, RejectDuplicates([]checkbook.Address{a, b}))
	assert.IsErr(t, ErrDuplicateSigner, RejectDuplicates([]checkbook.Address{a, b, a}))
	assert.IsErr(t, ErrDuplicateSigner, RejectDuplicates([]checkbook.Address{b, b}))
}

func TestVerifyRecipientClaim(t *testing.T) {
	vkey := checkbooktest.NewKey(t)
	stranger := checkbooktest.NewKey(t)
	recipient := checkbooktest.RandomAddress(t)

	sig := checkbooktest.Sign(t, vkey, RecipientDigest(recipient))
	assert.Nil(t, VerifyRecipientClaim(recipient, vkey.Address(), sig))

	// The claim names the recipient, it cannot be redirected.
	err := VerifyRecipientClaim(checkbooktest.RandomAddress(t), vkey.Address(), sig)
	assert.IsErr(t, ErrInvalidNonce, err)

	wrong := checkbooktest.Sign(t, stranger, RecipientDigest(recipient))
	err = VerifyRecipientClaim(recipient, vkey.Address(), wrong)
	assert.IsErr(t, ErrInvalidNonce, err)
	assert.Equal(t, true, IsSignatureMismatch(err))

	err = VerifyRecipientClaim(recipient, vkey.Address(), nil)
	assert.IsErr(t, ErrInvalidNonce, err)
}

func TestDigestsAreDistinct(t *testing.T) {
	asset := checkbooktest.RandomAddress(t)
	vkey := checkbooktest.RandomAddress(t)

	amount := BlankCheckDigest(asset, FaceValue{Amount: coin.NewCoinp(1, 0, "ETH")}, vkey)
	bigger := BlankCheckDigest(asset, FaceValue{Amount: coin.NewCoinp(2, 0, "ETH")}, vkey)
	token := BlankCheckDigest(asset, FaceValue{TokenID: []byte{1}}, vkey)
	recipient := RecipientDigest(vkey)

	digests := [][]byte{amount, bigger, token, recipient}
	for i := range digests {
		assert.Equal(t, 32, len(digests[i]))
		for j := i + 1; j < len(digests); j++ {
			if string(digests[i]) == string(digests[j]) {
				t.Fatalf("digest %d equals digest %d", i, j)
			}
		}
	}
	assert.Equal(t, amount, BlankCheckDigest(asset, FaceValue{Amount: coin.NewCoinp(1, 0, "ETH")}, vkey))
}
