package blankcheck

import (
	"context"
	"sync"

	"github.com/iov-one/checkbook"
	"github.com/iov-one/checkbook/errors"
)

// Custodian moves value of a single asset between addresses. Writes must go
// to db only, so that they are part of the redemption unit of work.
type Custodian interface {
	Transfer(ctx context.Context, db checkbook.KVStore, from, to checkbook.Address, value FaceValue) error
}

// CustodianRouter dispatches transfers to the custodian registered for the
// asset contract of a check.
type CustodianRouter struct {
	mu     sync.RWMutex
	routes map[string]Custodian
}

// NewCustodianRouter returns an empty router.
func NewCustodianRouter() *CustodianRouter {
	return &CustodianRouter{routes: make(map[string]Custodian)}
}

// Register binds a custodian to an asset contract. Registering the same
// asset twice panics, as this is a programming error.
func (r *CustodianRouter) Register(asset checkbook.Address, c Custodian) {
	if err := asset.Validate(); err != nil {
		panic(err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.routes[string(asset)]; ok {
		panic("custodian already registered for " + asset.String())
	}
	r.routes[string(asset)] = c
}

// Custodian returns the custodian of given asset.
func (r *CustodianRouter) Custodian(asset checkbook.Address) (Custodian, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.routes[string(asset)]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownAsset, "%s", asset)
	}
	return c, nil
}

// Transfer finds the custodian of the asset and calls it. Any failure
// reported by the custodian is returned as ErrCustodian, still matching the
// custodian's own error kind.
func (r *CustodianRouter) Transfer(ctx context.Context, db checkbook.KVStore, asset, from, to checkbook.Address, value FaceValue) error {
	c, err := r.Custodian(asset)
	if err != nil {
		return err
	}
	if err := c.Transfer(ctx, db, from, to, value); err != nil {
		return &custodianError{cause: err}
	}
	return nil
}

// custodianError marks a failure reported by a custodian. The custodian
// error is not reinterpreted, both kinds match.
type custodianError struct {
	cause error
}

func (e *custodianError) Error() string {
	return ErrCustodian.Error() + ": " + e.cause.Error()
}

// Unpack lists ErrCustodian first, so it defines the error code.
func (e *custodianError) Unpack() []error {
	return []error{ErrCustodian, e.cause}
}
