package main

import (
	"context"
	"testing"

	"github.com/iov-one/checkbook"
	"github.com/iov-one/checkbook/checkbooktest"
	"github.com/iov-one/checkbook/coin"
	"github.com/iov-one/checkbook/config"
	"github.com/iov-one/checkbook/errors"
	"github.com/iov-one/checkbook/store/iavl"
	"github.com/iov-one/checkbook/x/blankcheck"
	"github.com/iov-one/checkbook/x/cardnonce"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore fails to persist while failWrite or failCommit is set.
type flakyStore struct {
	*iavl.CommitStore
	failWrite  bool
	failCommit bool
}

func (s *flakyStore) CacheWrap() checkbook.KVCacheWrap {
	return &flakyWrap{KVCacheWrap: s.CommitStore.CacheWrap(), store: s}
}

func (s *flakyStore) Commit() (checkbook.CommitID, error) {
	if s.failCommit {
		s.Rollback()
		return checkbook.CommitID{}, errors.Wrap(errors.ErrDatabase, "disk full")
	}
	return s.CommitStore.Commit()
}

type flakyWrap struct {
	checkbook.KVCacheWrap
	store *flakyStore
}

func (w *flakyWrap) Write() error {
	if w.store.failWrite {
		return errors.Wrap(errors.ErrDatabase, "disk full")
	}
	return w.KVCacheWrap.Write()
}

func TestRedeemReleasesCardsWhenStateIsNotPersisted(t *testing.T) {
	ctx := context.Background()

	cases := map[string]func(s *flakyStore){
		"write fails":  func(s *flakyStore) { s.failWrite = true },
		"commit fails": func(s *flakyStore) { s.failCommit = true },
	}

	for testName, breakStore := range cases {
		t.Run(testName, func(t *testing.T) {
			srv := checkbooktest.RedisServer(t)
			defer srv.Close()
			cards, err := cardnonce.DialRedis(ctx, srv.Addr(), "", 0)
			require.NoError(t, err)
			defer cards.Close()

			db := &flakyStore{CommitStore: iavl.MockCommitStore()}
			usdID := checkbooktest.RandomAddress(t)
			app := newApp(db, checkbooktest.RandomAddress(t), cards, []config.Asset{
				{Contract: usdID, Kind: config.KindCash, Ticker: "USD"},
			})

			primary, card := checkbooktest.NewKey(t), checkbooktest.NewKey(t)
			th := blankcheck.Threshold{RequiredPrimary: 1, TotalPrimary: 1, RequiredCard: 1, TotalCard: 1}
			signers := blankcheck.Signers{
				Primary: []checkbook.Address{primary.Address()},
				Cards:   []checkbook.Address{card.Address()},
			}
			account, err := app.DeriveAccount(signers, th, usdID)
			require.NoError(t, err)
			require.NoError(t, app.Issue(usdID, account, coin.NewCoin(5, 0, "USD")))

			vkey := checkbooktest.NewKey(t)
			recipient := checkbooktest.RandomAddress(t)
			cardDigest := checkbooktest.RandomDigest(t)
			msg := &blankcheck.RedeemMsg{
				AssetContract:      usdID,
				Recipient:          recipient,
				VerificationKey:    vkey.Address(),
				Signers:            signers,
				Threshold:          th,
				FaceValue:          usd(2),
				RecipientSignature: checkbooktest.Sign(t, vkey, blankcheck.RecipientDigest(recipient)),
				SignerSignatures: []checkbook.HexBytes{
					checkbooktest.Sign(t, primary, blankcheck.BlankCheckDigest(usdID, usd(2), vkey.Address())),
				},
				CardDigests:    []checkbook.HexBytes{cardDigest},
				CardSignatures: []checkbook.HexBytes{checkbooktest.Sign(t, card, cardDigest)},
			}

			breakStore(db)
			res, err := app.Redeem(ctx, msg)
			require.Error(t, err)
			assert.True(t, errors.ErrDatabase.Is(err))
			assert.Nil(t, res)
			assert.Empty(t, srv.Keys())
			used, err := app.CardNonceUsed(ctx, card.Address(), cardDigest)
			require.NoError(t, err)
			assert.False(t, used)
			version, err := app.Version()
			require.NoError(t, err)
			assert.Equal(t, int64(1), version)

			// Once the store recovers, the very same request goes through.
			db.failWrite, db.failCommit = false, false
			_, err = app.Redeem(ctx, msg)
			require.NoError(t, err)
			assert.Len(t, srv.Keys(), 1)
			bal, err := app.Balance(usdID, recipient)
			require.NoError(t, err)
			assert.True(t, coin.NewCoin(2, 0, "USD").Equals(bal))
		})
	}
}
