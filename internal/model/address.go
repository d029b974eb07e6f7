package model

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// NormalizeAddress is the lookup key for a wallet address: addresses compare
// case-insensitively.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// SameAddress reports whether a and b name the same wallet.
func SameAddress(a, b string) bool {
	return NormalizeAddress(a) == NormalizeAddress(b)
}

// IsHexAddress reports whether addr is 0x followed by 40 hex digits.
func IsHexAddress(addr string) bool {
	addr = strings.TrimSpace(addr)
	if len(addr) != 42 || !strings.HasPrefix(strings.ToLower(addr), "0x") {
		return false
	}
	_, err := hex.DecodeString(addr[2:])
	return err == nil
}

// ChecksumAddress renders addr in EIP-55 mixed case. Inputs that are not hex
// addresses are returned unchanged.
func ChecksumAddress(addr string) string {
	if !IsHexAddress(addr) {
		return addr
	}
	lower := NormalizeAddress(addr)[2:]

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	sum := h.Sum(nil)

	out := []byte(lower)
	for i, c := range out {
		if c < 'a' || c > 'f' {
			continue
		}
		nibble := sum[i/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 0x0f
		}
		if nibble >= 8 {
			out[i] = c - 32
		}
	}
	return "0x" + string(out)
}
