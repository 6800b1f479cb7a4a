package blankcheck

import (
	"encoding/binary"

	"github.com/iov-one/checkbook"
	"github.com/iov-one/checkbook/crypto"
)

// accountDomain separates account identities from any other hash. The
// version must change together with the encoding.
const accountDomain = "blankcheck/account/v1"

// DeriveAccount returns the virtual account that holds the value of checks
// written by the given signers. The result depends on every input,
// including the order of signers, and on nothing else. It can be computed
// before the account was ever used, so that it can be funded.
//
// No private key exists for the returned address.
func DeriveAccount(signers Signers, th Threshold, asset, custodian checkbook.Address) checkbook.Address {
	all := signers.All()

	var nums [20]byte
	binary.BigEndian.PutUint32(nums[0:], th.RequiredPrimary)
	binary.BigEndian.PutUint32(nums[4:], th.TotalPrimary)
	binary.BigEndian.PutUint32(nums[8:], th.RequiredCard)
	binary.BigEndian.PutUint32(nums[12:], th.TotalCard)
	binary.BigEndian.PutUint32(nums[16:], uint32(len(all)))

	chunks := make([][]byte, 0, 4+len(all))
	chunks = append(chunks, []byte(accountDomain), custodian, asset, nums[:])
	for _, s := range all {
		chunks = append(chunks, s)
	}
	h := crypto.Keccak256(chunks...)
	return checkbook.Address(h[:checkbook.AddressLength])
}
