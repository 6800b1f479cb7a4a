package blankcheck

import (
	"github.com/iov-one/checkbook"
	"github.com/iov-one/checkbook/crypto"
	"github.com/iov-one/checkbook/errors"
)

// VerifySigners ensures that sigs[i] is a signature of digest made by
// declared[i], for every declared signer. Extra signatures are ignored.
func VerifySigners(digest []byte, declared []checkbook.Address, sigs [][]byte) error {
	if len(sigs) < len(declared) {
		return errors.Wrapf(ErrSignerMismatch, "want %d signatures, got %d", len(declared), len(sigs))
	}
	for i, want := range declared {
		got, err := crypto.RecoverAddress(digest, sigs[i])
		if err != nil {
			return errors.Wrapf(ErrSignerMismatch, "signature %d: %s", i, err)
		}
		if !got.Equals(want) {
			return errors.Wrapf(ErrSignerMismatch, "signature %d recovers %s, want %s", i, got, want)
		}
	}
	return nil
}

// VerifyCardSigners ensures that sigs[i] is a signature of digests[i] made
// by declared[i]. Each card signs its own digest.
func VerifyCardSigners(digests [][]byte, declared []checkbook.Address, sigs [][]byte) error {
	if len(digests) != len(declared) {
		return errors.Wrapf(ErrCardMismatch, "want %d digests, got %d", len(declared), len(digests))
	}
	if len(sigs) < len(declared) {
		return errors.Wrapf(ErrCardMismatch, "want %d signatures, got %d", len(declared), len(sigs))
	}
	for i, want := range declared {
		got, err := crypto.RecoverAddress(digests[i], sigs[i])
		if err != nil {
			return errors.Wrapf(ErrCardMismatch, "card signature %d: %s", i, err)
		}
		if !got.Equals(want) {
			return errors.Wrapf(ErrCardMismatch, "card signature %d recovers %s, want %s", i, got, want)
		}
	}
	return nil
}

// RejectDuplicates fails if any identity appears more than once.
func RejectDuplicates(all []checkbook.Address) error {
	seen := make(map[string]int, len(all))
	for i, a := range all {
		if j, ok := seen[string(a)]; ok {
			return errors.Wrapf(ErrDuplicateSigner, "%s at %d and %d", a, j, i)
		}
		seen[string(a)] = i
	}
	return nil
}

// VerifyRecipientClaim ensures the recipient was chosen by whoever controls
// the verification key.
func VerifyRecipientClaim(recipient, verificationKey checkbook.Address, sig []byte) error {
	got, err := crypto.RecoverAddress(RecipientDigest(recipient), sig)
	if err != nil {
		return errors.Wrapf(ErrInvalidNonce, "recipient signature: %s", err)
	}
	if !got.Equals(verificationKey) {
		return errors.Wrapf(ErrInvalidNonce, "recipient signed by %s", got)
	}
	return nil
}
