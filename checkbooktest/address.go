package checkbooktest

import (
	"testing"

	"github.com/iov-one/checkbook"
)

// ParseAddress takes an address in a human readable format and returns its
// binary representation. This function is a test helper that is using
// checkbook.ParseAddress function functionality.
func ParseAddress(t testing.TB, encodedAddress string) checkbook.Address {
	t.Helper()

	addr, err := checkbook.ParseAddress(encodedAddress)
	if err != nil {
		t.Fatalf("cannot parse %q address: %s", encodedAddress, err)
	}
	return addr
}
