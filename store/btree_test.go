package store

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func memStoreConstructor() (CacheableKVStore, func()) {
	return MemStore(), func() {}
}

func TestBTreeCacheWrap(t *testing.T) {
	suite := NewTestSuite(memStoreConstructor)

	t.Run("get set", suite.GetSet)
	t.Run("cache conflicts", suite.CacheConflicts)
	t.Run("nested discard", suite.NestedDiscard)
}

func TestNonAtomicBatch(t *testing.T) {
	Convey("a batch only touches the store on write", t, func() {
		db := MemStore()
		batch := db.NewBatch()
		So(batch.Set([]byte("a"), []byte("1")), ShouldBeNil)
		So(batch.Set([]byte("b"), []byte("2")), ShouldBeNil)
		So(batch.Delete([]byte("a")), ShouldBeNil)

		has, err := db.Has([]byte("b"))
		So(err, ShouldBeNil)
		So(has, ShouldBeFalse)

		Convey("and applies the ops in order", func() {
			So(batch.Write(), ShouldBeNil)

			a, err := db.Get([]byte("a"))
			So(err, ShouldBeNil)
			So(a, ShouldBeNil)
			b, err := db.Get([]byte("b"))
			So(err, ShouldBeNil)
			So(b, ShouldResemble, []byte("2"))
		})
	})
}
