package blankcheck

import (
	"fmt"

	"github.com/iov-one/checkbook"
	"github.com/iov-one/checkbook/coin"
	"github.com/iov-one/checkbook/errors"
)

// Threshold configures how many signatures of each kind a redemption
// requires. It is part of the account identity.
type Threshold struct {
	RequiredPrimary uint32 `json:"required_primary"`
	TotalPrimary    uint32 `json:"total_primary"`
	RequiredCard    uint32 `json:"required_card"`
	TotalCard       uint32 `json:"total_card"`
}

// Validate ensures the threshold can ever be satisfied.
func (t Threshold) Validate() error {
	var errs error
	if t.RequiredPrimary == 0 {
		errs = errors.AppendField(errs, "RequiredPrimary", errors.Wrap(errors.ErrInput, "at least one primary signature is required"))
	}
	if t.RequiredPrimary > t.TotalPrimary {
		errs = errors.AppendField(errs, "RequiredPrimary", errors.Wrapf(errors.ErrInput, "%d of %d", t.RequiredPrimary, t.TotalPrimary))
	}
	if t.RequiredCard > t.TotalCard {
		errs = errors.AppendField(errs, "RequiredCard", errors.Wrapf(errors.ErrInput, "%d of %d", t.RequiredCard, t.TotalCard))
	}
	return errs
}

func (t Threshold) String() string {
	return fmt.Sprintf("%d/%d primary, %d/%d card", t.RequiredPrimary, t.TotalPrimary, t.RequiredCard, t.TotalCard)
}

// Signers lists every party that may authorize a check. Order matters, it
// is part of the account identity and signatures are matched by position.
type Signers struct {
	Primary []checkbook.Address `json:"primary"`
	Cards   []checkbook.Address `json:"cards"`
}

// All returns primaries followed by cards.
func (s Signers) All() []checkbook.Address {
	all := make([]checkbook.Address, 0, len(s.Primary)+len(s.Cards))
	all = append(all, s.Primary...)
	return append(all, s.Cards...)
}

// Validate ensures the collections match the threshold sizes and contain
// only well formed addresses.
func (s Signers) Validate(t Threshold) error {
	var errs error
	if n := len(s.Primary); uint32(n) != t.TotalPrimary {
		errs = errors.AppendField(errs, "Signers.Primary", errors.Wrapf(errors.ErrInput, "want %d, got %d", t.TotalPrimary, n))
	}
	if n := len(s.Cards); uint32(n) != t.TotalCard {
		errs = errors.AppendField(errs, "Signers.Cards", errors.Wrapf(errors.ErrInput, "want %d, got %d", t.TotalCard, n))
	}
	for i, a := range s.Primary {
		errs = errors.AppendField(errs, errors.Path("Signers.Primary", i), a.Validate())
	}
	for i, a := range s.Cards {
		errs = errors.AppendField(errs, errors.Path("Signers.Cards", i), a.Validate())
	}
	return errs
}

// FaceValue is what a check is worth: either a fungible amount or a single
// unique asset. Exactly one of the fields is set.
type FaceValue struct {
	Amount  *coin.Coin         `json:"amount,omitempty"`
	TokenID checkbook.HexBytes `json:"token_id,omitempty"`
}

// IsFungible returns true for amounts.
func (v FaceValue) IsFungible() bool {
	return v.Amount != nil
}

// Validate ensures exactly one kind of value is set.
func (v FaceValue) Validate() error {
	switch {
	case v.Amount != nil && len(v.TokenID) != 0:
		return errors.Wrap(errors.ErrInput, "amount and token id are exclusive")
	case v.Amount != nil:
		return v.Amount.Validate()
	case len(v.TokenID) != 0:
		return nil
	}
	return errors.Wrap(errors.ErrEmpty, "face value")
}

func (v FaceValue) String() string {
	if v.Amount != nil {
		return v.Amount.String()
	}
	return "token " + v.TokenID.String()
}

// CheckNonce records that a check was redeemed. It is stored under the
// account and the verification key of the check.
type CheckNonce struct {
	Account         checkbook.Address `json:"account"`
	VerificationKey checkbook.Address `json:"verification_key"`
	Redeemer        checkbook.Address `json:"redeemer"`
}

// Validate ensures all fields are set.
func (n *CheckNonce) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Account", n.Account.Validate())
	errs = errors.AppendField(errs, "VerificationKey", n.VerificationKey.Validate())
	errs = errors.AppendField(errs, "Redeemer", n.Redeemer.Validate())
	return errs
}

// RedeemMsg is everything needed to redeem a blank check. Signatures are
// positional: SignerSignatures[i] belongs to Signers.Primary[i] and
// CardSignatures[i] to Signers.Cards[i] for CardDigests[i].
type RedeemMsg struct {
	AssetContract      checkbook.Address    `json:"asset_contract"`
	Recipient          checkbook.Address    `json:"recipient"`
	VerificationKey    checkbook.Address    `json:"verification_key"`
	Signers            Signers              `json:"signers"`
	Threshold          Threshold            `json:"threshold"`
	RecipientSignature checkbook.HexBytes   `json:"recipient_signature"`
	SignerSignatures   []checkbook.HexBytes `json:"signer_signatures"`
	CardSignatures     []checkbook.HexBytes `json:"card_signatures"`
	FaceValue          FaceValue            `json:"face_value"`
	CardDigests        []checkbook.HexBytes `json:"card_digests"`
}

// Validate checks the message shape. Signature counts are checked during
// verification so that they fail with the matching mismatch error.
func (m *RedeemMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "AssetContract", m.AssetContract.Validate())
	errs = errors.AppendField(errs, "Recipient", m.Recipient.Validate())
	errs = errors.AppendField(errs, "VerificationKey", m.VerificationKey.Validate())
	errs = errors.AppendField(errs, "Threshold", m.Threshold.Validate())
	errs = errors.Append(errs, m.Signers.Validate(m.Threshold))
	errs = errors.AppendField(errs, "FaceValue", m.FaceValue.Validate())
	if len(m.RecipientSignature) == 0 {
		errs = errors.AppendField(errs, "RecipientSignature", errors.ErrEmpty)
	}
	return errs
}

// State is the progress of a single redemption.
type State uint8

const (
	StateReceived State = iota
	StateSignersVerified
	StateCardsVerified
	StateRecipientVerified
	StateAccountDerived
	StateNonceClaimed
	StateSettled
	StateCancelled
	StateRejected
)

var stateNames = map[State]string{
	StateReceived:          "received",
	StateSignersVerified:   "signers_verified",
	StateCardsVerified:     "cards_verified",
	StateRecipientVerified: "recipient_verified",
	StateAccountDerived:    "account_derived",
	StateNonceClaimed:      "nonce_claimed",
	StateSettled:           "settled",
	StateCancelled:         "cancelled",
	StateRejected:          "rejected",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// MarshalText allows the state to be used in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
