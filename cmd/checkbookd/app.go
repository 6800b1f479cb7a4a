package main

import (
	"context"
	"sync"

	"github.com/iov-one/checkbook"
	"github.com/iov-one/checkbook/coin"
	"github.com/iov-one/checkbook/config"
	"github.com/iov-one/checkbook/errors"
	"github.com/iov-one/checkbook/store/iavl"
	"github.com/iov-one/checkbook/x/blankcheck"
	"github.com/iov-one/checkbook/x/cardnonce"
	"github.com/iov-one/checkbook/x/cash"
	"github.com/iov-one/checkbook/x/nft"
)

// stateStore is the part of iavl.CommitStore the application needs.
type stateStore interface {
	checkbook.ReadOnlyKVStore
	CacheWrap() checkbook.KVCacheWrap
	Commit() (checkbook.CommitID, error)
	LatestVersion() (checkbook.CommitID, error)
}

// App ties the redemption engine with the state it operates on.
//
// The underlying tree is not safe for concurrent use, so all access goes
// through App, which serializes it.
type App struct {
	mu     sync.Mutex
	db     stateStore
	engine *blankcheck.Engine
	cash   map[string]*cash.Custodian
	nfts   map[string]*nft.Custodian
	assets []config.Asset

	closers []func() error
}

// NewApp opens the state in the home directory and registers a custodian
// for every configured asset.
func NewApp(ctx context.Context, conf config.Configuration) (*App, error) {
	db, err := iavl.NewCommitStore(conf.Home, "checkbook")
	if err != nil {
		return nil, errors.Wrap(err, "open state")
	}
	closers := []func() error{func() error { db.Close(); return nil }}

	var cards cardnonce.Registry = cardnonce.NewBucket()
	if conf.Redis.Enabled() {
		r, err := cardnonce.DialRedis(ctx, conf.Redis.Addr, conf.Redis.Password, conf.Redis.DB)
		if err != nil {
			db.Close()
			return nil, errors.Wrap(err, "card nonce registry")
		}
		cards = r
		closers = append(closers, r.Close)
	}

	app := newApp(db, conf.Custodian, cards, conf.Assets)
	app.closers = closers
	return app, nil
}

func newApp(db stateStore, custodian checkbook.Address, cards cardnonce.Registry, assets []config.Asset) *App {
	app := &App{
		db:     db,
		cash:   make(map[string]*cash.Custodian),
		nfts:   make(map[string]*nft.Custodian),
		assets: assets,
	}
	router := blankcheck.NewCustodianRouter()
	for _, a := range assets {
		switch a.Kind {
		case config.KindCash:
			c := cash.NewCustodian(a.Contract, a.Ticker)
			app.cash[string(a.Contract)] = c
			router.Register(a.Contract, c)
		case config.KindNFT:
			c := nft.NewCustodian(a.Contract)
			app.nfts[string(a.Contract)] = c
			router.Register(a.Contract, c)
		}
	}
	app.engine = blankcheck.NewEngine(custodian, router, cards)
	return app
}

// Close releases all resources held by the application.
func (a *App) Close() error {
	var errs error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = errors.Append(errs, a.closers[i]())
	}
	return errs
}

// Redeem runs the redemption and commits the new state version if it
// succeeds. If the redemption succeeds but its state cannot be committed,
// the card digests it consumed are released.
func (a *App) Redeem(ctx context.Context, msg *blankcheck.RedeemMsg) (*blankcheck.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var res *blankcheck.Result
	err := a.commit(func(db checkbook.CacheableKVStore) error {
		var err error
		res, err = a.engine.Redeem(ctx, db, msg)
		return err
	})
	if err != nil {
		a.engine.Release(ctx, res)
		return nil, err
	}
	return res, nil
}

// CheckStatus returns the redeemer of the check, or nil.
func (a *App) CheckStatus(account, verificationKey checkbook.Address) (checkbook.Address, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.engine.CheckStatus(a.db, account, verificationKey)
}

// CardNonceUsed returns true if the card already signed given digest.
func (a *App) CardNonceUsed(ctx context.Context, card checkbook.Address, digest []byte) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.engine.CardNonceUsed(ctx, a.db, card, digest)
}

// DeriveAccount returns the account served by this application.
func (a *App) DeriveAccount(signers blankcheck.Signers, th blankcheck.Threshold, asset checkbook.Address) (checkbook.Address, error) {
	if err := th.Validate(); err != nil {
		return nil, errors.Field("Threshold", err, "")
	}
	if err := signers.Validate(th); err != nil {
		return nil, err
	}
	if err := asset.Validate(); err != nil {
		return nil, errors.Field("AssetContract", err, "")
	}
	return a.engine.DeriveAccount(signers, th, asset), nil
}

// Balance returns the amount of a cash asset held by the address.
func (a *App) Balance(asset, addr checkbook.Address) (coin.Coin, error) {
	c, ok := a.cash[string(asset)]
	if !ok {
		return coin.Coin{}, errors.Wrapf(blankcheck.ErrUnknownAsset, "no cash asset %s", asset)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return c.Balance(a.db, addr)
}

// Issue credits a cash asset to the address and commits.
func (a *App) Issue(asset, addr checkbook.Address, amount coin.Coin) error {
	c, ok := a.cash[string(asset)]
	if !ok {
		return errors.Wrapf(blankcheck.ErrUnknownAsset, "no cash asset %s", asset)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.commit(func(db checkbook.CacheableKVStore) error {
		return c.Issue(db, addr, amount)
	})
}

// OwnerOf returns the owner of a token.
func (a *App) OwnerOf(asset checkbook.Address, id []byte) (checkbook.Address, error) {
	c, ok := a.nfts[string(asset)]
	if !ok {
		return nil, errors.Wrapf(blankcheck.ErrUnknownAsset, "no nft asset %s", asset)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return c.OwnerOf(a.db, id)
}

// Mint creates a token owned by the address and commits.
func (a *App) Mint(asset checkbook.Address, id []byte, owner checkbook.Address) error {
	c, ok := a.nfts[string(asset)]
	if !ok {
		return errors.Wrapf(blankcheck.ErrUnknownAsset, "no nft asset %s", asset)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.commit(func(db checkbook.CacheableKVStore) error {
		return c.Mint(db, id, owner)
	})
}

// commit runs fn in a cache wrap and persists the result as a new state
// version. Nothing is written if fn fails or panics. The caller must hold
// the lock.
func (a *App) commit(fn func(checkbook.CacheableKVStore) error) (err error) {
	cache := a.db.CacheWrap()
	defer func() {
		if err != nil {
			cache.Discard()
		}
	}()
	defer errors.Recover(&err)

	if err := fn(cache); err != nil {
		return err
	}
	if err := cache.Write(); err != nil {
		return errors.Wrap(err, "write")
	}
	if _, err := a.db.Commit(); err != nil {
		return errors.Wrap(err, "commit")
	}
	return nil
}

// Version returns the last committed state version.
func (a *App) Version() (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id, err := a.db.LatestVersion()
	return id.Version, err
}
