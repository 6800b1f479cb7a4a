package crypto

import (
	"github.com/iov-one/checkbook"
	"github.com/iov-one/checkbook/errors"
	"golang.org/x/crypto/sha3"
)

// ErrInvalidSignature is returned for any signature that cannot be used to
// recover a public key: wrong length, non-canonical recovery parameter or a
// point that is not on the curve.
var ErrInvalidSignature = errors.Register(20, "invalid signature")

const (
	// SignatureLength is the length of a recoverable signature in the
	// R || S || V layout.
	SignatureLength = 65

	// DigestLength is the length of every message digest that is signed.
	DigestLength = 32
)

// Signer is the functionality we use from a private key.
// No serializing to support hardware devices (cards) as well.
type Signer interface {
	// Sign returns a recoverable signature of the given 32 byte digest.
	Sign(digest []byte) ([]byte, error)
	// Address returns the identity recovered from the signatures this
	// signer produces.
	Address() checkbook.Address
}

// Keccak256 returns the legacy Keccak-256 hash of all given chunks
// concatenated together.
func Keccak256(chunks ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, c := range chunks {
		// Hash.Write never returns an error.
		_, _ = h.Write(c)
	}
	return h.Sum(nil)
}
