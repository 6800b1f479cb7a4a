package cash

import (
	"context"

	"github.com/iov-one/checkbook"
	"github.com/iov-one/checkbook/coin"
	"github.com/iov-one/checkbook/errors"
	"github.com/iov-one/checkbook/orm"
	"github.com/iov-one/checkbook/x/blankcheck"
)

// ErrInsufficientFunds is returned when a balance is smaller than the amount
// that should leave it.
var ErrInsufficientFunds = errors.Register(60, "insufficient funds")

// Balance is the amount an address holds of a single asset.
type Balance struct {
	Coin coin.Coin
}

// Validate ensures the balance is not negative.
func (b *Balance) Validate() error {
	return b.Coin.Validate()
}

// Custodian keeps the balances of a single fungible asset.
type Custodian struct {
	asset  checkbook.Address
	ticker string
	bucket orm.ModelBucket
}

var _ blankcheck.Custodian = (*Custodian)(nil)

// NewCustodian returns the ledger of the asset. All amounts it handles must
// be of given ticker.
func NewCustodian(asset checkbook.Address, ticker string) *Custodian {
	return &Custodian{
		asset:  asset,
		ticker: ticker,
		bucket: orm.NewModelBucket("cash", &Balance{}),
	}
}

// Ticker returns the currency of this ledger.
func (c *Custodian) Ticker() string {
	return c.ticker
}

func (c *Custodian) key(addr checkbook.Address) []byte {
	key := make([]byte, 0, len(c.asset)+len(addr))
	key = append(key, c.asset...)
	return append(key, addr...)
}

// Balance returns how much addr holds. An unknown address holds zero.
func (c *Custodian) Balance(db checkbook.ReadOnlyKVStore, addr checkbook.Address) (coin.Coin, error) {
	var b Balance
	switch err := c.bucket.One(db, c.key(addr), &b); {
	case errors.ErrNotFound.Is(err):
		return coin.Coin{Ticker: c.ticker}, nil
	case err != nil:
		return coin.Coin{}, err
	}
	return b.Coin, nil
}

// Issue adds amount to the balance of addr. Used to fund accounts.
func (c *Custodian) Issue(db checkbook.KVStore, addr checkbook.Address, amount coin.Coin) error {
	if err := addr.Validate(); err != nil {
		return errors.Wrap(err, "address")
	}
	if err := c.checkAmount(amount); err != nil {
		return err
	}
	return c.add(db, addr, amount)
}

// Transfer moves a fungible face value from one address to the other.
func (c *Custodian) Transfer(ctx context.Context, db checkbook.KVStore, from, to checkbook.Address, value blankcheck.FaceValue) error {
	if !value.IsFungible() {
		return errors.Wrap(errors.ErrType, "cash moves amounts only")
	}
	amount := *value.Amount
	if err := c.checkAmount(amount); err != nil {
		return err
	}

	have, err := c.Balance(db, from)
	if err != nil {
		return err
	}
	if !have.IsGTE(amount) {
		return errors.Wrapf(ErrInsufficientFunds, "%s has %s, needs %s", from, have, amount)
	}
	left, err := have.Subtract(amount)
	if err != nil {
		return err
	}
	if err := c.bucket.Put(db, c.key(from), &Balance{Coin: left}); err != nil {
		return err
	}
	if err := c.add(db, to, amount); err != nil {
		return err
	}
	checkbook.GetLogger(ctx).Debug("cash transfer", "from", from, "to", to, "amount", amount)
	return nil
}

func (c *Custodian) checkAmount(amount coin.Coin) error {
	if err := amount.Validate(); err != nil {
		return err
	}
	if amount.Ticker != c.ticker {
		return errors.Wrapf(coin.ErrCurrency, "ledger of %s cannot hold %s", c.ticker, amount.Ticker)
	}
	if !amount.IsPositive() {
		return errors.Wrap(errors.ErrAmount, "amount must be positive")
	}
	return nil
}

func (c *Custodian) add(db checkbook.KVStore, addr checkbook.Address, amount coin.Coin) error {
	have, err := c.Balance(db, addr)
	if err != nil {
		return err
	}
	sum, err := have.Add(amount)
	if err != nil {
		return err
	}
	return c.bucket.Put(db, c.key(addr), &Balance{Coin: sum})
}
