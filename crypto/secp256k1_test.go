package crypto

import (
	"bytes"
	"testing"

	"github.com/iov-one/checkbook/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndRecover(t *testing.T) {
	key, err := GenPrivKey()
	require.NoError(t, err)
	digest := Keccak256([]byte("redeemBlankCheck"))

	sig, err := key.Sign(digest)
	require.NoError(t, err)
	require.Len(t, sig, SignatureLength)
	assert.Contains(t, []byte{27, 28}, sig[64])

	addr, err := RecoverAddress(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, key.Address(), addr)

	// A different digest recovers a different identity.
	other, err := RecoverAddress(Keccak256([]byte("other")), sig)
	require.NoError(t, err)
	assert.NotEqual(t, key.Address(), other)
}

func TestRecoverRawRecoveryID(t *testing.T) {
	key, err := GenPrivKey()
	require.NoError(t, err)
	digest := Keccak256([]byte("card digest"))
	sig, err := key.Sign(digest)
	require.NoError(t, err)

	sig[64] -= recoveryOffset
	addr, err := RecoverAddress(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, key.Address(), addr)
}

func TestRecoverMalformed(t *testing.T) {
	key, err := GenPrivKey()
	require.NoError(t, err)
	digest := Keccak256([]byte("message"))
	sig, err := key.Sign(digest)
	require.NoError(t, err)

	badV := append([]byte(nil), sig...)
	badV[64] = 29

	zeroR := append([]byte(nil), sig...)
	copy(zeroR[:32], make([]byte, 32))

	cases := map[string]struct {
		digest []byte
		sig    []byte
	}{
		"short signature":     {digest: digest, sig: sig[:64]},
		"long signature":      {digest: digest, sig: append(sig, 0)},
		"empty signature":     {digest: digest, sig: nil},
		"short digest":        {digest: digest[:31], sig: sig},
		"non-canonical v":     {digest: digest, sig: badV},
		"r outside the curve": {digest: digest, sig: zeroR},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			_, err := RecoverAddress(tc.digest, tc.sig)
			if !ErrInvalidSignature.Is(err) {
				t.Fatalf("want invalid signature, got %+v", err)
			}
		})
	}
}

func TestPrivKeyFromBytes(t *testing.T) {
	secret := bytes.Repeat([]byte{7}, 32)
	a, err := PrivKeyFromBytes(secret)
	require.NoError(t, err)
	b, err := PrivKeyFromHex("0707070707070707070707070707070707070707070707070707070707070707")
	require.NoError(t, err)
	assert.Equal(t, a.Address(), b.Address())
	assert.Equal(t, secret, a.Bytes())

	_, err = PrivKeyFromBytes(secret[:31])
	assert.True(t, errors.ErrInput.Is(err))
	_, err = PrivKeyFromHex("zz")
	assert.True(t, errors.ErrInput.Is(err))
}

func TestKeccak256(t *testing.T) {
	// Well known Keccak-256 of the empty input.
	want := "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"
	got := Keccak256()
	assert.Equal(t, want, hexString(got))
	assert.Equal(t, Keccak256([]byte("ab")), Keccak256([]byte("a"), []byte("b")))
}

func hexString(b []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, 0, len(b)*2)
	for _, c := range b {
		out = append(out, digits[c>>4], digits[c&0x0f])
	}
	return string(out)
}
