// Package sku derives Rakuten item codes from merchant SKUs.
//
// Merchant SKUs carry a 7-digit Rakuten item code somewhere before the
// variant suffix, which starts at the first "X". A SKU like
// "ama-798_7560X11Y14" encodes item 7987560 in size 11, color 14.
package sku

import (
	"regexp"
	"strings"
)

var nonDigits = regexp.MustCompile(`[^0-9]+`)
var itemCode = regexp.MustCompile(`[0-9]{7}`)

// Derive extracts the 7-digit item code from a merchant SKU. The
// second return is false when the SKU does not carry a code.
//
// Only the part before the variant separator is considered: once the
// head yields no code the whole SKU is treated as code-less, even if
// digits appear in the variant suffix.
func Derive(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}

	head, _, _ := strings.Cut(trimmed, "X")
	digits := nonDigits.ReplaceAllString(head, "")

	code := itemCode.FindString(digits)
	if code == "" {
		return "", false
	}
	return code, true
}
