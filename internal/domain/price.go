package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Price is a fixed-point monetary amount stored as cents.
// The JSON form is a decimal string with two fraction digits ("12.50"),
// never a float, so values round-trip exactly. Valid amounts are
// non-negative with at most three integer digits (0.00 to 999.99).
type Price int64

// MaxPrice is the largest representable amount, 999.99.
const MaxPrice Price = 99999

// ParsePrice parses a decimal string into a Price.
// Accepts up to two fraction digits; "5", "5.2" and "5.20" are all 520 cents.
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("price is empty")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("price cannot be negative")
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", s)
	}

	var cents int64
	if frac != "" {
		if len(frac) > 2 {
			return 0, fmt.Errorf("price %q has more than two decimal places", s)
		}
		cents, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid price %q", s)
		}
		if len(frac) == 1 {
			cents *= 10
		}
	}

	p := Price(units*100 + cents)
	if p > MaxPrice {
		return 0, fmt.Errorf("price %q exceeds maximum %s", s, MaxPrice)
	}
	return p, nil
}

// String formats the price as a decimal with two fraction digits.
func (p Price) String() string {
	return fmt.Sprintf("%d.%02d", p/100, p%100)
}

// MarshalJSON encodes the price as a quoted decimal string.
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(p.String())), nil
}

// UnmarshalJSON accepts a quoted decimal string or a bare JSON number.
func (p *Price) UnmarshalJSON(data []byte) error {
	s := string(data)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	parsed, err := ParsePrice(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
