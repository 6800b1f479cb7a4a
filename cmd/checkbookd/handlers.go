package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/gorilla/mux"
	"github.com/iov-one/checkbook"
	"github.com/iov-one/checkbook/coin"
	"github.com/iov-one/checkbook/config"
	"github.com/iov-one/checkbook/crypto"
	"github.com/iov-one/checkbook/errors"
	"github.com/iov-one/checkbook/x/blankcheck"
	"github.com/iov-one/checkbook/x/cardnonce"
	"github.com/iov-one/checkbook/x/cash"
	"github.com/iov-one/checkbook/x/nft"
	"github.com/tendermint/tendermint/libs/log"
)

// maxBodySize limits the size of accepted request payloads.
const maxBodySize = 1 << 20

// NewRouter returns the HTTP API of given application.
func NewRouter(app *App, logger log.Logger, debug bool) http.Handler {
	s := &server{app: app, logger: logger, debug: debug}

	r := mux.NewRouter()
	r.HandleFunc("/info", s.info).Methods("GET")
	r.HandleFunc("/redeem", s.redeem).Methods("POST")
	r.HandleFunc("/checks/{account}/{key}", s.checkStatus).Methods("GET")
	r.HandleFunc("/cards/{card}/{digest}", s.cardStatus).Methods("GET")
	r.HandleFunc("/accounts/derive", s.deriveAccount).Methods("POST")
	r.HandleFunc("/balances/{asset}/{account}", s.balance).Methods("GET")
	r.HandleFunc("/tokens/{asset}/{id}", s.token).Methods("GET")
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		JSONErr(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		JSONErr(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})
	return r
}

type server struct {
	app    *App
	logger log.Logger
	debug  bool
	reqID  uint64
}

func (s *server) info(w http.ResponseWriter, r *http.Request) {
	version, err := s.app.Version()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResp(w, http.StatusOK, struct {
		Version      string            `json:"version"`
		Custodian    checkbook.Address `json:"custodian"`
		StateVersion int64             `json:"state_version"`
		Assets       []assetInfo       `json:"assets"`
	}{
		Version:      checkbook.Version(),
		Custodian:    s.app.engine.Custodian(),
		StateVersion: version,
		Assets:       assetInfos(s.app.assets),
	})
}

type assetInfo struct {
	Contract checkbook.Address `json:"contract"`
	Kind     string            `json:"kind"`
	Ticker   string            `json:"ticker,omitempty"`
}

func assetInfos(assets []config.Asset) []assetInfo {
	infos := make([]assetInfo, len(assets))
	for i, a := range assets {
		infos[i] = assetInfo{Contract: a.Contract, Kind: a.Kind, Ticker: a.Ticker}
	}
	return infos
}

func (s *server) redeem(w http.ResponseWriter, r *http.Request) {
	var msg blankcheck.RedeemMsg
	if !s.decode(w, r, &msg) {
		return
	}
	ctx := s.context(r)
	res, err := s.app.Redeem(ctx, &msg)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResp(w, http.StatusOK, res)
}

func (s *server) checkStatus(w http.ResponseWriter, r *http.Request) {
	account, ok := s.addressVar(w, r, "account")
	if !ok {
		return
	}
	key, ok := s.addressVar(w, r, "key")
	if !ok {
		return
	}
	redeemer, err := s.app.CheckStatus(account, key)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResp(w, http.StatusOK, struct {
		Account         checkbook.Address `json:"account"`
		VerificationKey checkbook.Address `json:"verification_key"`
		Redeemed        bool              `json:"redeemed"`
		Redeemer        checkbook.Address `json:"redeemer,omitempty"`
	}{
		Account:         account,
		VerificationKey: key,
		Redeemed:        redeemer != nil,
		Redeemer:        redeemer,
	})
}

func (s *server) cardStatus(w http.ResponseWriter, r *http.Request) {
	card, ok := s.addressVar(w, r, "card")
	if !ok {
		return
	}
	digest, ok := s.hexVar(w, r, "digest")
	if !ok {
		return
	}
	used, err := s.app.CardNonceUsed(s.context(r), card, digest)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResp(w, http.StatusOK, struct {
		Card   checkbook.Address  `json:"card"`
		Digest checkbook.HexBytes `json:"digest"`
		Used   bool               `json:"used"`
	}{
		Card:   card,
		Digest: digest,
		Used:   used,
	})
}

type deriveRequest struct {
	AssetContract checkbook.Address    `json:"asset_contract"`
	Signers       blankcheck.Signers   `json:"signers"`
	Threshold     blankcheck.Threshold `json:"threshold"`
}

func (s *server) deriveAccount(w http.ResponseWriter, r *http.Request) {
	var req deriveRequest
	if !s.decode(w, r, &req) {
		return
	}
	account, err := s.app.DeriveAccount(req.Signers, req.Threshold, req.AssetContract)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResp(w, http.StatusOK, struct {
		Account checkbook.Address `json:"account"`
	}{
		Account: account,
	})
}

func (s *server) balance(w http.ResponseWriter, r *http.Request) {
	asset, ok := s.addressVar(w, r, "asset")
	if !ok {
		return
	}
	account, ok := s.addressVar(w, r, "account")
	if !ok {
		return
	}
	amount, err := s.app.Balance(asset, account)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResp(w, http.StatusOK, struct {
		Account checkbook.Address `json:"account"`
		Balance coin.Coin         `json:"balance"`
	}{
		Account: account,
		Balance: amount,
	})
}

func (s *server) token(w http.ResponseWriter, r *http.Request) {
	asset, ok := s.addressVar(w, r, "asset")
	if !ok {
		return
	}
	id, ok := s.hexVar(w, r, "id")
	if !ok {
		return
	}
	owner, err := s.app.OwnerOf(asset, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	JSONResp(w, http.StatusOK, struct {
		ID    checkbook.HexBytes `json:"id"`
		Owner checkbook.Address  `json:"owner"`
	}{
		ID:    id,
		Owner: owner,
	})
}

// context returns the request context carrying a logger tagged with a
// request identifier.
func (s *server) context(r *http.Request) context.Context {
	id := atomic.AddUint64(&s.reqID, 1)
	ctx := checkbook.WithLogger(r.Context(), s.logger)
	return checkbook.WithRequestID(ctx, fmt.Sprintf("%d", id))
}

// decode reads the JSON body into dest. On failure an error response is
// written and false returned.
func (s *server) decode(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		JSONErr(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %s", err))
		return false
	}
	return true
}

func (s *server) addressVar(w http.ResponseWriter, r *http.Request, name string) (checkbook.Address, bool) {
	addr, err := checkbook.ParseAddress(mux.Vars(r)[name])
	if err == nil {
		err = addr.Validate()
	}
	if err != nil {
		JSONErr(w, http.StatusBadRequest, fmt.Sprintf("invalid %s: %s", name, err))
		return nil, false
	}
	return addr, true
}

func (s *server) hexVar(w http.ResponseWriter, r *http.Request, name string) ([]byte, bool) {
	raw := strings.TrimPrefix(mux.Vars(r)[name], "0x")
	b, err := hex.DecodeString(raw)
	if err != nil || len(b) == 0 {
		JSONErr(w, http.StatusBadRequest, fmt.Sprintf("invalid %s: hex value expected", name))
		return nil, false
	}
	return b, true
}

// fail writes the error response. Errors not created from a registered root
// error are redacted unless running in debug mode.
func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", fmt.Sprintf("%+v", err))
	}
	code, msg := errors.Info(err, s.debug)
	JSONResp(w, status, struct {
		Code   uint32   `json:"code"`
		Errors []string `json:"errors"`
	}{
		Code:   code,
		Errors: []string{msg},
	})
}

// httpStatus maps an error kind to the HTTP status code.
func httpStatus(err error) int {
	switch {
	case blankcheck.IsSignatureMismatch(err),
		blankcheck.ErrDuplicateSigner.Is(err),
		crypto.ErrInvalidSignature.Is(err):
		return http.StatusUnauthorized
	case blankcheck.ErrNonceUsed.Is(err),
		cardnonce.ErrNonceUsed.Is(err),
		errors.ErrDuplicate.Is(err):
		return http.StatusConflict
	case cash.ErrInsufficientFunds.Is(err),
		nft.ErrNotOwner.Is(err),
		blankcheck.ErrCustodian.Is(err):
		return http.StatusUnprocessableEntity
	case blankcheck.ErrUnknownAsset.Is(err),
		errors.ErrNotFound.Is(err):
		return http.StatusNotFound
	case errors.ErrMsg.Is(err),
		errors.ErrInput.Is(err),
		errors.ErrEmpty.Is(err),
		errors.ErrAmount.Is(err),
		coin.ErrCurrency.Is(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// JSONResp write content as JSON encoded response.
func JSONResp(w http.ResponseWriter, code int, content interface{}) {
	b, err := json.MarshalIndent(content, "", "\t")
	if err != nil {
		code = http.StatusInternalServerError
		b = []byte(`{"errors":["Internal Server Error"]}`)
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(code)
	_, _ = w.Write(b)
}

// JSONErr write single error as JSON encoded response.
func JSONErr(w http.ResponseWriter, code int, errText string) {
	JSONResp(w, code, struct {
		Errors []string `json:"errors"`
	}{
		Errors: []string{errText},
	})
}
