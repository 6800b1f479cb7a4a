package checkbook

import (
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/iov-one/checkbook/errors"
)

// HexBytes is a byte slice that is represented in JSON as an upper case hex
// string instead of the default base64. Signatures and digests use it.
type HexBytes []byte

// MarshalJSON encodes as hex.
func (h HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(strings.ToUpper(hex.EncodeToString(h)))
}

// UnmarshalJSON accepts hex, with or without a 0x prefix.
func (h *HexBytes) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return errors.Wrap(errors.ErrInput, "hex must be a string")
	}
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	val, err := hex.DecodeString(s)
	if err != nil {
		return errors.Wrap(errors.ErrInput, "cannot decode hex")
	}
	if len(val) == 0 {
		val = nil
	}
	*h = val
	return nil
}

func (h HexBytes) String() string {
	return strings.ToUpper(hex.EncodeToString(h))
}
