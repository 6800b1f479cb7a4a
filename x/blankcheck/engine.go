package blankcheck

import (
	"context"
	"sync"

	"github.com/iov-one/checkbook"
	"github.com/iov-one/checkbook/crypto"
	"github.com/iov-one/checkbook/errors"
	"github.com/iov-one/checkbook/x/cardnonce"
	"github.com/tendermint/tendermint/libs/log"
	"github.com/willf/bitset"
)

// Result describes a successful redemption.
type Result struct {
	Account   checkbook.Address `json:"account"`
	Recipient checkbook.Address `json:"recipient"`
	// Cancelled is true when the check was redeemed to its own account,
	// which voids it without moving any value.
	Cancelled bool  `json:"cancelled"`
	State     State `json:"state"`
	// Signed is the participation mask over Signers.All(). Required
	// positions are always set. A primary past the threshold is set only if
	// its optional signature was present and valid.
	Signed *bitset.BitSet `json:"signed"`
	// Claims lists the card digests consumed by this redemption.
	Claims []CardClaim `json:"card_claims,omitempty"`
}

// CardClaim is a card digest consumed by a redemption.
type CardClaim struct {
	Card   checkbook.Address  `json:"card"`
	Digest checkbook.HexBytes `json:"digest"`
}

// Engine redeems blank checks written by accounts it is the custodian of.
// Redemptions through one engine are serialized.
type Engine struct {
	mu        sync.Mutex
	custodian checkbook.Address
	router    *CustodianRouter
	cards     cardnonce.Registry
	checks    *NonceBucket
}

// NewEngine returns an engine identified as custodian. All accounts it
// serves are derived with this identity. The card registry may be shared
// with other engines.
func NewEngine(custodian checkbook.Address, router *CustodianRouter, cards cardnonce.Registry) *Engine {
	return &Engine{
		custodian: custodian,
		router:    router,
		cards:     cards,
		checks:    NewNonceBucket(),
	}
}

// Custodian returns the identity of this engine.
func (e *Engine) Custodian() checkbook.Address {
	return e.custodian
}

// DeriveAccount returns the account of the signers for given asset, as
// served by this engine.
func (e *Engine) DeriveAccount(signers Signers, th Threshold, asset checkbook.Address) checkbook.Address {
	return DeriveAccount(signers, th, asset, e.custodian)
}

// CheckStatus returns who redeemed the check identified by the account and
// the verification key, or nil if it was not redeemed.
func (e *Engine) CheckStatus(db checkbook.ReadOnlyKVStore, account, verificationKey checkbook.Address) (checkbook.Address, error) {
	return e.checks.Peek(db, account, verificationKey)
}

// CardNonceUsed returns true if the card digest was consumed.
func (e *Engine) CardNonceUsed(ctx context.Context, db checkbook.ReadOnlyKVStore, card checkbook.Address, digest []byte) (bool, error) {
	return e.cards.IsUsed(ctx, db, card, digest)
}

// Redeem verifies the check and moves its face value to the recipient.
//
// All writes go to a cache wrap of db that is written only if every step
// succeeds. On failure nothing is written and card digests claimed in a
// registry living outside of db are released. A panic is returned as
// errors.ErrPanic after the same cleanup.
func (e *Engine) Redeem(ctx context.Context, db checkbook.CacheableKVStore, msg *RedeemMsg) (res *Result, err error) {
	if msg == nil {
		return nil, errors.Wrap(errors.ErrMsg, "missing message")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	r := redemption{
		Engine: e,
		ctx:    ctx,
		logger: checkbook.GetLogger(ctx).With("module", "blankcheck"),
		cache:  db.CacheWrap(),
		msg:    msg,
		res: &Result{
			Recipient: msg.Recipient,
			State:     StateReceived,
		},
	}
	defer func() {
		if err != nil {
			r.cache.Discard()
			r.release(r.res.Claims)
			r.logger.Debug("redemption rejected", "state", r.res.State, "err", err)
			res = nil
		}
	}()
	defer errors.Recover(&err)

	if err := r.run(); err != nil {
		return nil, err
	}
	return r.res, nil
}

// Release undoes the card claims of a successful redemption whose writes
// were not persisted afterwards. Claims stored in the discarded state are
// gone already, so only a registry kept outside of it is called.
func (e *Engine) Release(ctx context.Context, res *Result) {
	if res == nil {
		return
	}
	r := redemption{
		Engine: e,
		ctx:    ctx,
		logger: checkbook.GetLogger(ctx).With("module", "blankcheck"),
	}
	r.release(res.Claims)
}

// redemption holds the state of a single Redeem call.
type redemption struct {
	*Engine
	ctx    context.Context
	logger log.Logger
	cache  checkbook.KVCacheWrap
	msg    *RedeemMsg
	res    *Result
}

func (r *redemption) advance(s State) {
	r.res.State = s
	r.logger.Debug("redemption", "state", s, "account", r.res.Account)
}

func (r *redemption) run() error {
	msg := r.msg
	if err := msg.Validate(); err != nil {
		return err
	}
	th := msg.Threshold
	r.res.Signed = bitset.New(uint(th.TotalPrimary + th.TotalCard))

	digest := BlankCheckDigest(msg.AssetContract, msg.FaceValue, msg.VerificationKey)
	primary := msg.Signers.Primary[:th.RequiredPrimary]
	if err := VerifySigners(digest, primary, bytesList(msg.SignerSignatures)); err != nil {
		return err
	}
	for i := uint32(0); i < th.RequiredPrimary; i++ {
		r.res.Signed.Set(uint(i))
	}
	r.markOptionalSigners(digest)
	r.advance(StateSignersVerified)

	if err := RejectDuplicates(msg.Signers.All()); err != nil {
		return err
	}
	if th.RequiredCard > 0 {
		if err := r.verifyCards(); err != nil {
			return err
		}
		r.advance(StateCardsVerified)
	}

	if err := VerifyRecipientClaim(msg.Recipient, msg.VerificationKey, msg.RecipientSignature); err != nil {
		return err
	}
	r.advance(StateRecipientVerified)

	r.res.Account = r.DeriveAccount(msg.Signers, th, msg.AssetContract)
	r.advance(StateAccountDerived)

	switch redeemer, err := r.checks.Peek(r.cache, r.res.Account, msg.VerificationKey); {
	case err != nil:
		return err
	case redeemer != nil:
		return errors.Wrapf(ErrNonceUsed, "redeemed by %s", redeemer)
	}
	if err := r.checks.Claim(r.cache, r.res.Account, msg.VerificationKey, msg.Recipient); err != nil {
		return err
	}
	r.advance(StateNonceClaimed)

	if msg.Recipient.Equals(r.res.Account) {
		r.res.Cancelled = true
	} else {
		err := r.router.Transfer(r.ctx, r.cache, msg.AssetContract, r.res.Account, msg.Recipient, msg.FaceValue)
		if err != nil {
			return err
		}
	}

	if err := r.cache.Write(); err != nil {
		return errors.Wrap(err, "cannot write redemption")
	}
	if r.res.Cancelled {
		r.res.State = StateCancelled
		r.logger.Info("check cancelled", "account", r.res.Account, "key", msg.VerificationKey)
	} else {
		r.res.State = StateSettled
		r.logger.Info("check redeemed", "account", r.res.Account, "recipient", msg.Recipient, "value", msg.FaceValue)
	}
	return nil
}

// verifyCards checks every required card signature before any digest is
// claimed, so that an invalid batch never consumes a nonce.
func (r *redemption) verifyCards() error {
	msg := r.msg
	th := msg.Threshold
	cards := msg.Signers.Cards[:th.RequiredCard]
	digests := bytesList(msg.CardDigests)
	if err := VerifyCardSigners(digests, cards, bytesList(msg.CardSignatures)); err != nil {
		return err
	}
	for i := range cards {
		r.res.Signed.Set(uint(th.TotalPrimary) + uint(i))
	}
	for i, card := range cards {
		if err := r.cards.Claim(r.ctx, r.cache, card, digests[i]); err != nil {
			return err
		}
		r.res.Claims = append(r.res.Claims, CardClaim{Card: card, Digest: digests[i]})
	}
	return nil
}

// markOptionalSigners records primaries past the threshold that signed the
// check as well. Their signatures are not required, so an invalid one is
// skipped.
func (r *redemption) markOptionalSigners(digest []byte) {
	msg := r.msg
	th := msg.Threshold
	for i := th.RequiredPrimary; i < th.TotalPrimary && int(i) < len(msg.SignerSignatures); i++ {
		got, err := crypto.RecoverAddress(digest, msg.SignerSignatures[i])
		if err == nil && got.Equals(msg.Signers.Primary[i]) {
			r.res.Signed.Set(uint(i))
		}
	}
}

// release undoes claims made in a registry that is not part of the cache.
func (r *redemption) release(claims []CardClaim) {
	rel, ok := r.cards.(cardnonce.Releaser)
	if !ok {
		return
	}
	for _, c := range claims {
		if err := rel.Release(r.ctx, c.Card, c.Digest); err != nil {
			r.logger.Error("cannot release card nonce", "card", c.Card, "err", err)
		}
	}
}

func bytesList(hs []checkbook.HexBytes) [][]byte {
	out := make([][]byte, len(hs))
	for i, h := range hs {
		out[i] = h
	}
	return out
}
