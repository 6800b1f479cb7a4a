package coin

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/iov-one/checkbook/errors"
)

// ErrCurrency is returned when two coins of different tickers are combined
// or a ticker is malformed.
var ErrCurrency = errors.Register(30, "invalid currency")

// IsCC is the RegExp to ensure valid currency codes
var IsCC = regexp.MustCompile(`^[A-Z]{3,4}$`).MatchString

const (
	// MaxInt is the largest whole value we accept
	MaxInt int64 = 999999999999999 // 10^15-1

	// FracUnit is the smallest numbers we divide by
	FracUnit int64 = 1000000000 // fractional units = 10^9
	// MaxFrac is the highest possible fractional value
	MaxFrac = FracUnit - 1
)

// Coin is a fungible amount of a single ticker. A check never carries a
// negative face value, so neither part may be negative.
type Coin struct {
	Whole      int64  `json:"whole,omitempty"`
	Fractional int64  `json:"fractional,omitempty"`
	Ticker     string `json:"ticker"`
}

// NewCoin creates a new coin object
func NewCoin(whole, fractional int64, ticker string) Coin {
	return Coin{Whole: whole, Fractional: fractional, Ticker: ticker}
}

// NewCoinp returns a pointer to a new coin.
func NewCoinp(whole, fractional int64, ticker string) *Coin {
	c := NewCoin(whole, fractional, ticker)
	return &c
}

// Add combines two coins of the same ticker.
func (c Coin) Add(o Coin) (Coin, error) {
	// An empty, zero value coin is neutral.
	if c.Ticker == "" && c.IsZero() {
		return o, nil
	}
	if o.Ticker == "" && o.IsZero() {
		return c, nil
	}
	if c.Ticker != o.Ticker {
		return Coin{}, errors.Wrapf(ErrCurrency, "adding %s to %s", o.Ticker, c.Ticker)
	}
	sum := Coin{
		Ticker:     c.Ticker,
		Whole:      c.Whole + o.Whole,
		Fractional: c.Fractional + o.Fractional,
	}
	if sum.Fractional > MaxFrac {
		sum.Whole++
		sum.Fractional -= FracUnit
	}
	if sum.Whole > MaxInt {
		return Coin{}, errors.ErrOverflow
	}
	return sum, nil
}

// Subtract returns c - o. The result must not be negative.
func (c Coin) Subtract(o Coin) (Coin, error) {
	if o.IsZero() {
		return c, nil
	}
	if c.Ticker != o.Ticker {
		return Coin{}, errors.Wrapf(ErrCurrency, "subtracting %s from %s", o.Ticker, c.Ticker)
	}
	if !c.IsGTE(o) {
		return Coin{}, errors.Wrapf(errors.ErrAmount, "%s is less than %s", c, o)
	}
	diff := Coin{
		Ticker:     c.Ticker,
		Whole:      c.Whole - o.Whole,
		Fractional: c.Fractional - o.Fractional,
	}
	if diff.Fractional < 0 {
		diff.Whole--
		diff.Fractional += FracUnit
	}
	return diff, nil
}

// Compare returns 1 if c is larger, -1 if o is larger and 0 if both values
// are equal. Tickers are not inspected.
func (c Coin) Compare(o Coin) int {
	switch {
	case c.Whole > o.Whole:
		return 1
	case c.Whole < o.Whole:
		return -1
	case c.Fractional > o.Fractional:
		return 1
	case c.Fractional < o.Fractional:
		return -1
	}
	return 0
}

// IsGTE returns true if c is same type and at least as large as o.
func (c Coin) IsGTE(o Coin) bool {
	return c.Ticker == o.Ticker && c.Compare(o) >= 0
}

// Equals returns true if all fields are identical
func (c Coin) Equals(o Coin) bool {
	return c.Ticker == o.Ticker && c.Compare(o) == 0
}

// IsZero returns true amounts are 0
func (c Coin) IsZero() bool {
	return c.Whole == 0 && c.Fractional == 0
}

// IsPositive returns true if the value is greater than 0
func (c Coin) IsPositive() bool {
	return c.Whole > 0 || (c.Whole == 0 && c.Fractional > 0)
}

// Clone provides an independent copy of a coin pointer
func (c *Coin) Clone() *Coin {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// Validate ensures that the coin has a valid ticker and is within the
// accepted, non negative, range.
func (c Coin) Validate() error {
	var err error
	if !IsCC(c.Ticker) {
		err = errors.Append(err, errors.Wrapf(ErrCurrency, "invalid currency: %s", c.Ticker))
	}
	if c.Whole < 0 || c.Whole > MaxInt {
		err = errors.Append(err, errors.Wrap(errors.ErrAmount, "whole out of range"))
	}
	if c.Fractional < 0 || c.Fractional > MaxFrac {
		err = errors.Append(err, errors.Wrap(errors.ErrAmount, "fractional out of range"))
	}
	return err
}

// String returns the human readable "<whole>[.<fractional>] <ticker>"
// representation that ParseHumanFormat accepts.
func (c Coin) String() string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(c.Whole, 10))
	if c.Fractional != 0 {
		s := strconv.FormatInt(c.Fractional, 10)
		s = strings.Repeat("0", 9-len(s)) + s
		b.WriteString("." + strings.TrimRight(s, "0"))
	}
	if c.Ticker != "" {
		b.WriteString(" " + c.Ticker)
	}
	return b.String()
}

var humanCoinFormatRx = regexp.MustCompile(`^(\d+)(?:\.(\d{1,9}))?\s*([A-Z]{3,4})$`)

// ParseHumanFormat parse a human readable coin representation. Accepted format
// is a string:
//
//	"<whole>[.<fractional>] <ticker>"
func ParseHumanFormat(h string) (Coin, error) {
	m := humanCoinFormatRx.FindStringSubmatch(strings.TrimSpace(h))
	if m == nil {
		return Coin{}, errors.Wrapf(errors.ErrInput, "invalid coin format %q", h)
	}
	whole, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return Coin{}, errors.Wrap(errors.ErrInput, "invalid whole value")
	}
	var frac int64
	if m[2] != "" {
		// Right pad so that "5" means half a unit.
		digits := m[2] + strings.Repeat("0", 9-len(m[2]))
		if frac, err = strconv.ParseInt(digits, 10, 64); err != nil {
			return Coin{}, errors.Wrap(errors.ErrInput, "invalid fractional value")
		}
	}
	c := Coin{Whole: whole, Fractional: frac, Ticker: m[3]}
	return c, c.Validate()
}

// UnmarshalJSON accepts both the human readable string format and the
// structured object format.
func (c *Coin) UnmarshalJSON(raw []byte) error {
	var human string
	if err := json.Unmarshal(raw, &human); err == nil {
		parsed, err := ParseHumanFormat(human)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}

	// A distinct type prevents recursion into this method.
	type plain Coin
	var p plain
	if err := json.Unmarshal(raw, &p); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	*c = Coin(p)
	return nil
}

// Set updates this coin value to what is provided. This method implements
// flag.Value interface.
func (c *Coin) Set(raw string) error {
	val, err := ParseHumanFormat(raw)
	if err != nil {
		return err
	}
	*c = val
	return nil
}
