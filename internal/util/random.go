// Package util provides utility functions for the FareBot application.
package util

import (
	"math/rand/v2"
	"strings"
)

// GenerateRandomID generates a random ID with the specified prefix and hex length.
// The returned ID will be in the format: "{prefix}{hex_string}".
func GenerateRandomID(prefix string, hexLength int) string {
	return prefix + GenerateRandomHex(hexLength)
}

// GenerateRandomHex generates a random hexadecimal string of the specified length.
func GenerateRandomHex(length int) string {
	if length <= 0 {
		return ""
	}

	const hexChars = "0123456789abcdef"
	var builder strings.Builder
	builder.Grow(length)

	for i := 0; i < length; i++ {
		builder.WriteByte(hexChars[rand.IntN(16)])
	}

	return builder.String()
}

// GenerateRandomUpperAlphaNumeric generates a random uppercase alphanumeric
// string of the specified length, the alphabet used by airline record locators.
func GenerateRandomUpperAlphaNumeric(length int) string {
	if length <= 0 {
		return ""
	}

	const chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	var builder strings.Builder
	builder.Grow(length)

	for i := 0; i < length; i++ {
		builder.WriteByte(chars[rand.IntN(len(chars))])
	}

	return builder.String()
}

// GeneratePNR generates a six-character booking reference.
func GeneratePNR() string {
	return GenerateRandomUpperAlphaNumeric(6)
}

// GenerateSupportReference generates a support ticket reference with "FB-" prefix.
func GenerateSupportReference() string {
	return "FB-" + GenerateRandomUpperAlphaNumeric(8)
}
