package identity

import (
	"fmt"
	"strings"
)

// mod is the largest prime below 2^16. Both running sums are reduced
// modulo this prime so the token stays within 32 bits.
const mod = 65521

// TokenLength is the fixed width of every derived token.
const TokenLength = 8

// Derive computes the identity token for a highlight text.
//
// The token is a two-sum rolling checksum over the UTF-8 bytes of the
// lowercased input, folded into an 8-character hex string. It is
// deterministic across runs and platforms and carries no locale
// dependency. Collisions are possible but only cause two identical
// highlights to collapse into one stored row, which is the desired
// de-duplication behaviour anyway.
func Derive(text string) string {
	var s1 uint32 = 1
	var s2 uint32

	for _, b := range []byte(strings.ToLower(text)) {
		s1 = (s1 + uint32(b)) % mod
		s2 = (s2 + s1) % mod
	}

	return fmt.Sprintf("%08x", s2<<16|s1)
}
