// Package isbn validates and normalizes ISBN-13 catalog identifiers.
//
// Validation never fails loudly: malformed input is routine and is reported
// through Result.Valid, never through an error or a panic.
package isbn

import "unicode"

// Length is the number of digits in an ISBN-13.
const Length = 13

// Result is the outcome of validating a raw identifier.
// Normalized is empty unless Valid is true.
type Result struct {
	Valid      bool   `json:"valid"`
	Normalized string `json:"normalized,omitempty"`
}

// Validate extracts the decimal digits of raw in order and checks them as an
// ISBN-13. Any non-digit character is treated as a separator, so
// "978-1784392796" and "978 1 78439 279 6" validate identically.
func Validate(raw string) Result {
	digits := extractDigits(raw)
	if len(digits) != Length {
		return Result{}
	}

	check, ok := CheckDigit(string(digits[:Length-1]))
	if !ok || int(digits[Length-1]-'0') != check {
		return Result{}
	}
	return Result{Valid: true, Normalized: string(digits)}
}

// IsValid reports whether raw is a valid ISBN-13.
func IsValid(raw string) bool {
	return Validate(raw).Valid
}

// CheckDigit computes the check digit for a 12-digit ISBN-13 prefix using
// alternating weights 1 and 3. ok is false if first12 is not exactly twelve
// ASCII digits.
func CheckDigit(first12 string) (check int, ok bool) {
	if len(first12) != Length-1 {
		return 0, false
	}

	sum := 0
	for i := 0; i < len(first12); i++ {
		c := first12[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		weight := 1
		if i%2 == 1 {
			weight = 3
		}
		sum += int(c-'0') * weight
	}

	remainder := sum % 10
	if remainder == 0 {
		return 0, true
	}
	return 10 - remainder, true
}

// extractDigits returns the decimal digits of s in order, folded to ASCII.
// Digits of any script count, so Arabic-Indic or fullwidth input normalizes
// to the same identifier as its ASCII spelling.
func extractDigits(s string) []byte {
	digits := make([]byte, 0, Length)
	for _, r := range s {
		if v, ok := digitValue(r); ok {
			digits = append(digits, byte('0'+v))
		}
	}
	return digits
}

// digitValue returns the numeric value of a Unicode decimal digit. Decimal
// digits are encoded in contiguous runs that start at zero, so the value is
// the offset from the start of the run modulo 10.
func digitValue(r rune) (int, bool) {
	if r >= '0' && r <= '9' {
		return int(r - '0'), true
	}
	if r < 0x80 || !unicode.Is(unicode.Nd, r) {
		return 0, false
	}
	for _, rng := range unicode.Nd.R16 {
		if lo, hi := rune(rng.Lo), rune(rng.Hi); r >= lo && r <= hi {
			return int((r-lo)/rune(rng.Stride)) % 10, true
		}
	}
	for _, rng := range unicode.Nd.R32 {
		if lo, hi := rune(rng.Lo), rune(rng.Hi); r >= lo && r <= hi {
			return int((r-lo)/rune(rng.Stride)) % 10, true
		}
	}
	return 0, false
}
