package checkbooktest

import (
	"crypto/rand"
	"testing"

	"github.com/iov-one/checkbook"
	"github.com/iov-one/checkbook/crypto"
)

// NewKey returns a fresh random secp256k1 key.
func NewKey(t testing.TB) *crypto.PrivateKey {
	t.Helper()
	key, err := crypto.GenPrivKey()
	if err != nil {
		t.Fatalf("cannot generate key: %s", err)
	}
	return key
}

// NewKeys returns n fresh keys together with their addresses, in the same
// order.
func NewKeys(t testing.TB, n int) ([]*crypto.PrivateKey, []checkbook.Address) {
	t.Helper()
	keys := make([]*crypto.PrivateKey, n)
	addrs := make([]checkbook.Address, n)
	for i := range keys {
		keys[i] = NewKey(t)
		addrs[i] = keys[i].Address()
	}
	return keys, addrs
}

// Sign signs the digest and fails the test on error.
func Sign(t testing.TB, key crypto.Signer, digest []byte) []byte {
	t.Helper()
	sig, err := key.Sign(digest)
	if err != nil {
		t.Fatalf("cannot sign: %s", err)
	}
	return sig
}

// RandomDigest returns 32 random bytes, usable as a card digest.
func RandomDigest(t testing.TB) []byte {
	t.Helper()
	d := make([]byte, crypto.DigestLength)
	if _, err := rand.Read(d); err != nil {
		t.Fatalf("cannot read random: %s", err)
	}
	return d
}

// RandomAddress returns an address that no key controls. Useful as an
// asset contract or custodian identity.
func RandomAddress(t testing.TB) checkbook.Address {
	t.Helper()
	return checkbook.Address(RandomDigest(t)[:checkbook.AddressLength])
}
