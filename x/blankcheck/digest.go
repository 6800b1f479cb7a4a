package blankcheck

import (
	"encoding/binary"

	"github.com/iov-one/checkbook"
	"github.com/iov-one/checkbook/crypto"
)

const (
	blankCheckTag = "redeemBlankCheck"
	recipientTag  = "recipient"

	fungibleValue byte = 1
	uniqueValue   byte = 2
)

// signedMessagePrefix is what wallets prepend to a 32 byte hash before
// signing it, so that a signature can never be replayed as a transaction.
var signedMessagePrefix = []byte("\x19Ethereum Signed Message:\n32")

// SignedMessageDigest returns the digest a wallet actually signs when asked
// to sign hash.
func SignedMessageDigest(hash []byte) []byte {
	return crypto.Keccak256(signedMessagePrefix, hash)
}

// BlankCheckDigest is the digest signed by every primary signer. It binds
// the asset, the face value and the verification key, but not the
// recipient, so the check can be handed over before it is redeemed.
func BlankCheckDigest(asset checkbook.Address, value FaceValue, verificationKey checkbook.Address) []byte {
	h := crypto.Keccak256([]byte(blankCheckTag), asset, encodeFaceValue(value), verificationKey)
	return SignedMessageDigest(h)
}

// RecipientDigest is the digest signed with the verification key to choose
// the recipient.
func RecipientDigest(recipient checkbook.Address) []byte {
	h := crypto.Keccak256([]byte(recipientTag), recipient)
	return SignedMessageDigest(h)
}

// CardDigest turns an arbitrary challenge into the 32 byte digest a card
// signs and that is consumed as its nonce.
func CardDigest(challenge []byte) []byte {
	return SignedMessageDigest(crypto.Keccak256(challenge))
}

// encodeFaceValue returns a tagged, length prefixed encoding so that an
// amount and a token can never share a representation.
func encodeFaceValue(v FaceValue) []byte {
	if v.Amount != nil {
		ticker := []byte(v.Amount.Ticker)
		out := make([]byte, 1+4+len(ticker)+16)
		out[0] = fungibleValue
		binary.BigEndian.PutUint32(out[1:], uint32(len(ticker)))
		n := copy(out[5:], ticker) + 5
		binary.BigEndian.PutUint64(out[n:], uint64(v.Amount.Whole))
		binary.BigEndian.PutUint64(out[n+8:], uint64(v.Amount.Fractional))
		return out
	}
	out := make([]byte, 1+4+len(v.TokenID))
	out[0] = uniqueValue
	binary.BigEndian.PutUint32(out[1:], uint32(len(v.TokenID)))
	copy(out[5:], v.TokenID)
	return out
}
