package crypto

import (
	"encoding/hex"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/iov-one/checkbook"
	"github.com/iov-one/checkbook/errors"
)

// recoveryOffset is added to the recovery id in the V byte of a signature.
const recoveryOffset = 27

// PrivateKey is a secp256k1 key able to produce recoverable signatures.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

var _ Signer = (*PrivateKey)(nil)

// GenPrivKey returns a random new private key.
func GenPrivKey() (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, errors.Wrap(err, "generate secp256k1 key")
	}
	return &PrivateKey{key: key}, nil
}

// PrivKeyFromBytes will deterministically construct a private key from a
// 32 byte secret. Use for keys loaded from storage, or for deterministic
// keys in test cases.
func PrivKeyFromBytes(secret []byte) (*PrivateKey, error) {
	if len(secret) != secp256k1.PrivKeyBytesLen {
		return nil, errors.Wrapf(errors.ErrInput, "private key must be %d bytes", secp256k1.PrivKeyBytesLen)
	}
	return &PrivateKey{key: secp256k1.PrivKeyFromBytes(secret)}, nil
}

// PrivKeyFromHex decodes a hex encoded 32 byte secret.
func PrivKeyFromHex(enc string) (*PrivateKey, error) {
	raw, err := hex.DecodeString(enc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, "cannot decode hex")
	}
	return PrivKeyFromBytes(raw)
}

// Bytes returns the 32 byte secret.
func (p *PrivateKey) Bytes() []byte {
	return p.key.Serialize()
}

// Sign returns a 65 byte R || S || V signature of the digest, where V is
// the recovery id offset by 27.
func (p *PrivateKey) Sign(digest []byte) ([]byte, error) {
	if len(digest) != DigestLength {
		return nil, errors.Wrapf(errors.ErrInput, "digest must be %d bytes", DigestLength)
	}
	// Compact format is V || R || S.
	compact := ecdsa.SignCompact(p.key, digest, false)
	sig := make([]byte, SignatureLength)
	copy(sig, compact[1:])
	sig[64] = compact[0]
	return sig, nil
}

// Address returns the identity of this key.
func (p *PrivateKey) Address() checkbook.Address {
	return PubKeyAddress(p.key.PubKey())
}

// PubKeyAddress returns the identity of a public key: the last 20 bytes of
// the Keccak-256 hash of the uncompressed point without its prefix.
func PubKeyAddress(pub *secp256k1.PublicKey) checkbook.Address {
	raw := pub.SerializeUncompressed()
	h := Keccak256(raw[1:])
	return checkbook.Address(h[len(h)-checkbook.AddressLength:])
}

// Recover returns the public key that produced the signature of the given
// digest. The signature must be 65 bytes in the R || S || V layout, V being
// 27 or 28 (0 and 1 are accepted as well).
func Recover(digest, sig []byte) (*secp256k1.PublicKey, error) {
	if len(digest) != DigestLength {
		return nil, errors.Wrapf(ErrInvalidSignature, "digest must be %d bytes, got %d", DigestLength, len(digest))
	}
	if len(sig) != SignatureLength {
		return nil, errors.Wrapf(ErrInvalidSignature, "signature must be %d bytes, got %d", SignatureLength, len(sig))
	}
	v := sig[64]
	if v < recoveryOffset {
		v += recoveryOffset
	}
	if v != recoveryOffset && v != recoveryOffset+1 {
		return nil, errors.Wrapf(ErrInvalidSignature, "non-canonical recovery parameter %d", sig[64])
	}

	compact := make([]byte, SignatureLength)
	compact[0] = v
	copy(compact[1:], sig[:64])
	pub, _, err := ecdsa.RecoverCompact(compact, digest)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidSignature, err.Error())
	}
	return pub, nil
}

// RecoverAddress returns the identity that produced the signature of the
// given digest.
func RecoverAddress(digest, sig []byte) (checkbook.Address, error) {
	pub, err := Recover(digest, sig)
	if err != nil {
		return nil, err
	}
	return PubKeyAddress(pub), nil
}
