package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iov-one/checkbook"
	"github.com/iov-one/checkbook/checkbooktest"
	"github.com/iov-one/checkbook/coin"
	"github.com/iov-one/checkbook/config"
	"github.com/iov-one/checkbook/crypto"
	"github.com/iov-one/checkbook/errors"
	"github.com/iov-one/checkbook/store/iavl"
	"github.com/iov-one/checkbook/x/blankcheck"
	"github.com/iov-one/checkbook/x/cardnonce"
	"github.com/iov-one/checkbook/x/cash"
	"github.com/iov-one/checkbook/x/nft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendermint/tendermint/libs/log"
)

type fixture struct {
	app     *App
	handler http.Handler
	usd     checkbook.Address
	art     checkbook.Address
}

func newFixture(t testing.TB) *fixture {
	usd := checkbooktest.RandomAddress(t)
	art := checkbooktest.RandomAddress(t)
	app := newApp(iavl.MockCommitStore(), checkbooktest.RandomAddress(t), cardnonce.NewBucket(), []config.Asset{
		{Contract: usd, Kind: config.KindCash, Ticker: "USD"},
		{Contract: art, Kind: config.KindNFT},
	})
	return &fixture{
		app:     app,
		handler: NewRouter(app, log.NewNopLogger(), false),
		usd:     usd,
		art:     art,
	}
}

func (f *fixture) do(t testing.TB, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	r := httptest.NewRequest(method, path, &payload)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, r)
	return w
}

type errorResponse struct {
	Code   uint32   `json:"code"`
	Errors []string `json:"errors"`
}

func decodeBody(t testing.TB, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(dest); err != nil {
		t.Fatalf("cannot decode JSON response: %s", err)
	}
}

// oneOfOne is a single primary signer writing checks without cards.
type oneOfOne struct {
	key   *crypto.PrivateKey
	th    blankcheck.Threshold
	asset checkbook.Address
}

func (o *oneOfOne) signers() blankcheck.Signers {
	return blankcheck.Signers{Primary: []checkbook.Address{o.key.Address()}}
}

func (o *oneOfOne) check(t testing.TB, value blankcheck.FaceValue, recipient checkbook.Address) *blankcheck.RedeemMsg {
	vkey := checkbooktest.NewKey(t)
	digest := blankcheck.BlankCheckDigest(o.asset, value, vkey.Address())
	return &blankcheck.RedeemMsg{
		AssetContract:      o.asset,
		Recipient:          recipient,
		VerificationKey:    vkey.Address(),
		Signers:            o.signers(),
		Threshold:          o.th,
		FaceValue:          value,
		RecipientSignature: checkbooktest.Sign(t, vkey, blankcheck.RecipientDigest(recipient)),
		SignerSignatures:   []checkbook.HexBytes{checkbooktest.Sign(t, o.key, digest)},
	}
}

func usd(whole int64) blankcheck.FaceValue {
	return blankcheck.FaceValue{Amount: coin.NewCoinp(whole, 0, "USD")}
}

func TestRedeemHandler(t *testing.T) {
	f := newFixture(t)
	payer := &oneOfOne{
		key:   checkbooktest.NewKey(t),
		th:    blankcheck.Threshold{RequiredPrimary: 1, TotalPrimary: 1},
		asset: f.usd,
	}

	w := f.do(t, "POST", "/accounts/derive", deriveRequest{
		AssetContract: f.usd,
		Signers:       payer.signers(),
		Threshold:     payer.th,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var derived struct {
		Account checkbook.Address `json:"account"`
	}
	decodeBody(t, w, &derived)
	require.NoError(t, f.app.Issue(f.usd, derived.Account, coin.NewCoin(10, 0, "USD")))

	recipient := checkbooktest.RandomAddress(t)
	msg := payer.check(t, usd(4), recipient)

	w = f.do(t, "POST", "/redeem", msg)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res struct {
		Account   checkbook.Address `json:"account"`
		Recipient checkbook.Address `json:"recipient"`
		Cancelled bool              `json:"cancelled"`
		State     string            `json:"state"`
	}
	decodeBody(t, w, &res)
	assert.Equal(t, derived.Account, res.Account)
	assert.Equal(t, recipient, res.Recipient)
	assert.False(t, res.Cancelled)
	assert.Equal(t, blankcheck.StateSettled.String(), res.State)

	w = f.do(t, "GET", fmt.Sprintf("/balances/%s/%s", f.usd, recipient), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var bal struct {
		Balance coin.Coin `json:"balance"`
	}
	decodeBody(t, w, &bal)
	assert.True(t, coin.NewCoin(4, 0, "USD").Equals(bal.Balance))

	w = f.do(t, "GET", fmt.Sprintf("/checks/%s/%s", res.Account, msg.VerificationKey), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var status struct {
		Redeemed bool              `json:"redeemed"`
		Redeemer checkbook.Address `json:"redeemer"`
	}
	decodeBody(t, w, &status)
	assert.True(t, status.Redeemed)
	assert.Equal(t, recipient, status.Redeemer)

	// The same check cannot be redeemed twice.
	w = f.do(t, "POST", "/redeem", msg)
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	var fail errorResponse
	decodeBody(t, w, &fail)
	assert.Equal(t, blankcheck.ErrNonceUsed.Code(), fail.Code)

	version, err := f.app.Version()
	require.NoError(t, err)
	assert.Equal(t, int64(2), version, "issue and one redemption committed")
}

func TestRedeemHandlerFailures(t *testing.T) {
	cases := map[string]struct {
		msg        func(t testing.TB, f *fixture, payer *oneOfOne) interface{}
		wantStatus int
		wantCode   uint32
	}{
		"malformed body": {
			msg: func(t testing.TB, f *fixture, payer *oneOfOne) interface{} {
				return map[string]interface{}{"threshold": "all of them"}
			},
			wantStatus: http.StatusBadRequest,
		},
		"invalid message": {
			msg: func(t testing.TB, f *fixture, payer *oneOfOne) interface{} {
				return blankcheck.RedeemMsg{}
			},
			wantStatus: http.StatusBadRequest,
		},
		"forged primary signature": {
			msg: func(t testing.TB, f *fixture, payer *oneOfOne) interface{} {
				msg := payer.check(t, usd(1), checkbooktest.RandomAddress(t))
				msg.SignerSignatures[0] = checkbooktest.Sign(t, checkbooktest.NewKey(t), checkbooktest.RandomDigest(t))
				return msg
			},
			wantStatus: http.StatusUnauthorized,
			wantCode:   blankcheck.ErrSignerMismatch.Code(),
		},
		"insufficient funds": {
			msg: func(t testing.TB, f *fixture, payer *oneOfOne) interface{} {
				return payer.check(t, usd(1000), checkbooktest.RandomAddress(t))
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   blankcheck.ErrCustodian.Code(),
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			f := newFixture(t)
			payer := &oneOfOne{
				key:   checkbooktest.NewKey(t),
				th:    blankcheck.Threshold{RequiredPrimary: 1, TotalPrimary: 1},
				asset: f.usd,
			}
			w := f.do(t, "POST", "/redeem", tc.msg(t, f, payer))
			require.Equal(t, tc.wantStatus, w.Code, w.Body.String())

			var fail errorResponse
			decodeBody(t, w, &fail)
			require.Len(t, fail.Errors, 1)
			if tc.wantCode != 0 {
				assert.Equal(t, tc.wantCode, fail.Code)
			}

			version, err := f.app.Version()
			require.NoError(t, err)
			assert.Equal(t, int64(0), version, "nothing committed")
		})
	}
}

func TestDeriveHandlerValidation(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "POST", "/accounts/derive", deriveRequest{
		AssetContract: f.usd,
		Signers:       blankcheck.Signers{Primary: []checkbook.Address{checkbooktest.RandomAddress(t)}},
		Threshold:     blankcheck.Threshold{RequiredPrimary: 2, TotalPrimary: 1},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = f.do(t, "POST", "/accounts/derive", deriveRequest{
		Signers:   blankcheck.Signers{Primary: []checkbook.Address{checkbooktest.RandomAddress(t)}},
		Threshold: blankcheck.Threshold{RequiredPrimary: 1, TotalPrimary: 1},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestTokenHandler(t *testing.T) {
	f := newFixture(t)
	owner := checkbooktest.RandomAddress(t)
	require.NoError(t, f.app.Mint(f.art, []byte{0xAB, 0xCD}, owner))

	w := f.do(t, "GET", fmt.Sprintf("/tokens/%s/abcd", f.art), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var tok struct {
		Owner checkbook.Address `json:"owner"`
	}
	decodeBody(t, w, &tok)
	assert.Equal(t, owner, tok.Owner)

	w = f.do(t, "GET", fmt.Sprintf("/tokens/%s/ffff", f.art), nil)
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	w = f.do(t, "GET", fmt.Sprintf("/tokens/%s/abcd", f.usd), nil)
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	w = f.do(t, "GET", fmt.Sprintf("/tokens/%s/xyz", f.art), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestCardStatusHandler(t *testing.T) {
	f := newFixture(t)
	card := checkbooktest.RandomAddress(t)
	digest := checkbooktest.RandomDigest(t)

	w := f.do(t, "GET", fmt.Sprintf("/cards/%s/%X", card, digest), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var status struct {
		Used bool `json:"used"`
	}
	decodeBody(t, w, &status)
	assert.False(t, status.Used)
}

func TestInfoHandler(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "GET", "/info", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var info struct {
		Version   string            `json:"version"`
		Custodian checkbook.Address `json:"custodian"`
		Assets    []assetInfo       `json:"assets"`
	}
	decodeBody(t, w, &info)
	assert.Equal(t, checkbook.Version(), info.Version)
	assert.Equal(t, f.app.engine.Custodian(), info.Custodian)
	assert.Len(t, info.Assets, 2)
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "GET", "/foo", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, "GET", "/redeem", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHTTPStatus(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"signer mismatch":    {err: blankcheck.ErrSignerMismatch, want: http.StatusUnauthorized},
		"recipient mismatch": {err: blankcheck.ErrInvalidNonce, want: http.StatusUnauthorized},
		"duplicated signer":  {err: blankcheck.ErrDuplicateSigner, want: http.StatusUnauthorized},
		"check nonce used":   {err: errors.Wrap(blankcheck.ErrNonceUsed, "again"), want: http.StatusConflict},
		"card nonce used":    {err: cardnonce.ErrNonceUsed, want: http.StatusConflict},
		"funds":              {err: cash.ErrInsufficientFunds, want: http.StatusUnprocessableEntity},
		"not owner":          {err: nft.ErrNotOwner, want: http.StatusUnprocessableEntity},
		"unknown asset":      {err: blankcheck.ErrUnknownAsset, want: http.StatusNotFound},
		"bad input":          {err: errors.ErrInput, want: http.StatusBadRequest},
		"unregistered error": {err: fmt.Errorf("boom"), want: http.StatusInternalServerError},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			assert.Equal(t, tc.want, httpStatus(tc.err))
		})
	}
}

func TestAppCommitsOnlySuccess(t *testing.T) {
	f := newFixture(t)
	addr := checkbooktest.RandomAddress(t)

	err := f.app.Issue(f.usd, addr, coin.NewCoin(1, 0, "EUR"))
	require.True(t, coin.ErrCurrency.Is(err))
	version, _ := f.app.Version()
	assert.Equal(t, int64(0), version)

	require.NoError(t, f.app.Issue(f.usd, addr, coin.NewCoin(1, 0, "USD")))
	version, _ = f.app.Version()
	assert.Equal(t, int64(1), version)

	_, err = f.app.Redeem(context.Background(), nil)
	require.True(t, errors.ErrMsg.Is(err))

	err = f.app.commit(func(db checkbook.CacheableKVStore) error {
		if err := db.Set([]byte("key"), []byte("value")); err != nil {
			return err
		}
		panic("boom")
	})
	require.True(t, errors.ErrPanic.Is(err))
	version, _ = f.app.Version()
	assert.Equal(t, int64(1), version)
}

func TestAppOnDisk(t *testing.T) {
	db, cleanup := checkbooktest.CommitKVStore(t)
	defer cleanup()

	usd := checkbooktest.RandomAddress(t)
	app := newApp(db, checkbooktest.RandomAddress(t), cardnonce.NewBucket(), []config.Asset{
		{Contract: usd, Kind: config.KindCash, Ticker: "USD"},
	})
	addr := checkbooktest.RandomAddress(t)
	require.NoError(t, app.Issue(usd, addr, coin.NewCoin(3, 0, "USD")))
	require.NoError(t, app.Issue(usd, addr, coin.NewCoin(0, 5, "USD")))

	version, err := app.Version()
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	bal, err := app.Balance(usd, addr)
	require.NoError(t, err)
	assert.True(t, coin.NewCoin(3, 5, "USD").Equals(bal))
}
