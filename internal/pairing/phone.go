// Package pairing implements the pairing acquisition flow: phone number
// candidates, pairing-code extraction from loosely shaped gateway
// responses, and the retry loop that keeps asking until a code appears.
package pairing

import "strings"

// Normalize strips everything but digits from a raw phone number
func Normalize(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Alternate builds the alternate phone candidate by toggling the mobile
// "9" prefix after the two-digit area code. Brazilian mobile numbers
// gained a leading 9, and the gateway is inconsistent about which form
// it wants, so pairing is attempted with both.
//
// Input must be a normalized national number of at least 10 digits
// (area code + number, no country code); callers validate length.
func Alternate(phone string) string {
	if len(phone) <= 2 {
		return phone
	}
	ddd := phone[:2]
	rest := phone[2:]
	if strings.HasPrefix(rest, "9") && len(rest) == 9 {
		return ddd + rest[1:]
	}
	return ddd + "9" + rest
}
