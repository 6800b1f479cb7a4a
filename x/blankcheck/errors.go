package blankcheck

import (
	"github.com/iov-one/checkbook/errors"
)

// Redemption failures. The descriptions are part of the public interface,
// wallets match on them.
var (
	ErrSignerMismatch  = errors.Register(50, "Invalid address found when verifying signer signatures")
	ErrCardMismatch    = errors.Register(51, "Invalid address found when verifying card signatures")
	ErrInvalidNonce    = errors.Register(52, "Invalid nonce")
	ErrDuplicateSigner = errors.Register(53, "Card address has been used already")
	ErrNonceUsed       = errors.Register(54, "Nonce already used")
	ErrCustodian       = errors.Register(55, "custodian failure")
	ErrUnknownAsset    = errors.Register(56, "unknown asset contract")
)

// IsSignatureMismatch returns true if the error was caused by a signature
// that does not recover to the expected identity, whether of a primary
// signer, a card or the verification key.
func IsSignatureMismatch(err error) bool {
	return ErrSignerMismatch.Is(err) ||
		ErrCardMismatch.Is(err) ||
		ErrInvalidNonce.Is(err)
}
