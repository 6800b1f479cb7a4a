package store

import "github.com/iov-one/checkbook"

// Move references for all storage types into this package
// for shorter names everywhere

type ReadOnlyKVStore = checkbook.ReadOnlyKVStore
type SetDeleter = checkbook.SetDeleter
type KVStore = checkbook.KVStore
type Batch = checkbook.Batch
type CacheableKVStore = checkbook.CacheableKVStore
type KVCacheWrap = checkbook.KVCacheWrap
type CommitKVStore = checkbook.CommitKVStore
type CommitID = checkbook.CommitID
