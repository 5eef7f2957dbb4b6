package entities

import (
	"regexp"
	"strings"
)

// Address identifies a participant account. Stored lower-case with a 0x prefix.
type Address string

// ZeroAddress is the "no address" sentinel used before a winner is resolved
const ZeroAddress Address = "0x0000000000000000000000000000000000000000"

var addressPattern = regexp.MustCompile(`^0x[0-9a-f]{40}$`)

// ParseAddress validates and normalizes a hex account address
func ParseAddress(raw string) (Address, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if !strings.HasPrefix(normalized, "0x") {
		normalized = "0x" + normalized
	}
	if !addressPattern.MatchString(normalized) {
		return "", NewLedgerError(CodeInvalidAddress, "%q is not a 20-byte hex address", raw)
	}
	return Address(normalized), nil
}

// IsZero returns true for the unresolved sentinel or an empty address
func (a Address) IsZero() bool {
	return a == "" || a == ZeroAddress
}

func (a Address) String() string {
	return string(a)
}
