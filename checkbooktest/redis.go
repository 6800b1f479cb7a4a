package checkbooktest

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
)

// RedisServer starts an in-process Redis server. Close it once the test is
// done.
func RedisServer(t testing.TB) *miniredis.Miniredis {
	t.Helper()

	srv, err := miniredis.Run()
	if err != nil {
		t.Fatalf("cannot start redis: %s", err)
	}
	return srv
}
