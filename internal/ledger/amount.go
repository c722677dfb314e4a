package ledger

import (
	"math"
	"strings"
)

// NormalizeAmount applies the ledger's amount policy, max(0, floor(v)), to an
// untrusted number. NaN and infinities count as 0.
func NormalizeAmount(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	f := math.Floor(v)
	if f >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(f)
}

func clamp(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

// parseStored decodes a stored balance leniently: surrounding whitespace, an
// optional sign, then the leading run of decimal digits ("12abc" is 12).
// Anything without digits, or negative, is 0. Overlong values saturate.
func parseStored(raw string) int64 {
	s := strings.TrimSpace(raw)
	negative := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		negative = s[0] == '-'
		s = s[1:]
	}

	var n int64
	digits := 0
	for ; digits < len(s); digits++ {
		c := s[digits]
		if c < '0' || c > '9' {
			break
		}
		d := int64(c - '0')
		if n > (math.MaxInt64-d)/10 {
			n = math.MaxInt64
			continue
		}
		n = n*10 + d
	}
	if digits == 0 || negative {
		return 0
	}
	return n
}
