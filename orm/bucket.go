/*
Package orm provides an easy to use db wrapper

Break state space into prefixed sections called Buckets.
* Each bucket contains only one type of model.
* Models are addressed by a primary key only. Secondary indexes and
sequences are not needed by any checkbook ledger.
* Records are serialized with go-amino binary encoding.
*/
package orm

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/iov-one/checkbook"
	"github.com/iov-one/checkbook/errors"
	amino "github.com/tendermint/go-amino"
)

var isBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`).MatchString

// Model is implemented by any entity that can be stored using ModelBucket.
type Model interface {
	// Validate returns error if the object is not in a valid
	// state to save to the db (eg. field missing, out of range, ...)
	Validate() error
}

// ModelBucket is implemented by buckets that operates on Models.
type ModelBucket interface {
	// One query the database for a single model instance. Lookup is done
	// by the primary key. Result is loaded into given destination model.
	// This method returns ErrNotFound if the entity does not exist in the
	// database.
	// If given model type cannot be used to contain stored entity, ErrType
	// is returned.
	One(db checkbook.ReadOnlyKVStore, key []byte, dest Model) error

	// Has returns true if an entity with given key exists.
	Has(db checkbook.ReadOnlyKVStore, key []byte) (bool, error)

	// Put saves given model in the database, overwriting any previous
	// value.
	Put(db checkbook.KVStore, key []byte, m Model) error

	// Insert saves given model in the database only if no entity is stored
	// under given key yet. It returns ErrDuplicate otherwise.
	Insert(db checkbook.KVStore, key []byte, m Model) error

	// Delete removes an entity with given primary key from the database.
	// It returns ErrNotFound if an entity with given key does not exist.
	Delete(db checkbook.KVStore, key []byte) error
}

// NewModelBucket returns a ModelBucket that stores all models of the same
// type as proto under the name prefix.
func NewModelBucket(name string, proto Model) ModelBucket {
	if !isBucketName(name) {
		panic(fmt.Sprintf("Illegal bucket: %s", name))
	}
	rt := reflect.TypeOf(proto)
	if rt.Kind() != reflect.Ptr {
		panic(fmt.Sprintf("bucket %s: model must be a pointer, got %T", name, proto))
	}
	return &modelBucket{
		name:   name,
		prefix: append([]byte(name), ':'),
		model:  rt,
		cdc:    codec,
	}
}

// codec is shared by all buckets. Models are concrete structures so no type
// registration is required.
var codec = amino.NewCodec()

type modelBucket struct {
	name   string
	prefix []byte
	model  reflect.Type
	cdc    *amino.Codec
}

var _ ModelBucket = (*modelBucket)(nil)

// dbKey is the full key we store in the db, including prefix. A fresh slice
// is allocated so that consecutive calls never share the backing array.
func (mb *modelBucket) dbKey(key []byte) []byte {
	out := make([]byte, len(mb.prefix)+len(key))
	copy(out, mb.prefix)
	copy(out[len(mb.prefix):], key)
	return out
}

func (mb *modelBucket) One(db checkbook.ReadOnlyKVStore, key []byte, dest Model) error {
	if reflect.TypeOf(dest) != mb.model {
		return errors.Wrapf(errors.ErrType, "%s stores %s, cannot load into %T", mb.name, mb.model, dest)
	}
	raw, err := db.Get(mb.dbKey(key))
	if err != nil {
		return errors.Wrap(err, "cannot read from the database")
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%T not in the store", dest)
	}
	if err := mb.cdc.UnmarshalBinaryBare(raw, dest); err != nil {
		return errors.Wrapf(errors.ErrModel, "cannot decode %T: %s", dest, err)
	}
	return nil
}

func (mb *modelBucket) Has(db checkbook.ReadOnlyKVStore, key []byte) (bool, error) {
	ok, err := db.Has(mb.dbKey(key))
	if err != nil {
		return false, errors.Wrap(err, "cannot read from the database")
	}
	return ok, nil
}

func (mb *modelBucket) Put(db checkbook.KVStore, key []byte, m Model) error {
	if reflect.TypeOf(m) != mb.model {
		return errors.Wrapf(errors.ErrType, "%s stores %s, got %T", mb.name, mb.model, m)
	}
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "invalid model")
	}
	raw, err := mb.cdc.MarshalBinaryBare(m)
	if err != nil {
		return errors.Wrapf(errors.ErrModel, "cannot encode %T: %s", m, err)
	}
	if err := db.Set(mb.dbKey(key), raw); err != nil {
		return errors.Wrap(err, "cannot store in the database")
	}
	return nil
}

func (mb *modelBucket) Insert(db checkbook.KVStore, key []byte, m Model) error {
	switch ok, err := mb.Has(db, key); {
	case err != nil:
		return err
	case ok:
		return errors.Wrapf(errors.ErrDuplicate, "%s %X", mb.name, key)
	}
	return mb.Put(db, key, m)
}

func (mb *modelBucket) Delete(db checkbook.KVStore, key []byte) error {
	switch ok, err := mb.Has(db, key); {
	case err != nil:
		return err
	case !ok:
		return errors.ErrNotFound
	}
	if err := db.Delete(mb.dbKey(key)); err != nil {
		return errors.Wrap(err, "cannot delete from the database")
	}
	return nil
}
