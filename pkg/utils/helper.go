package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
)

// ParseInt converts string to int with default value
func ParseInt(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}

	result, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	if result < 1 {
		return defaultValue
	}

	return result
}

// ==================== ORDER ID ====================

// GenerateOrderID creates the merchant order reference embedded in every
// gateway request. Format: ORD-<8 hex chars>
func GenerateOrderID() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}

	return "ORD-" + hex.EncodeToString(buf)
}

// GenerateNonce creates a random hex nonce of the given length for
// gateway request signing.
func GenerateNonce(length int) string {
	if length <= 0 {
		length = 16
	}

	buf := make([]byte, (length+1)/2)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}

	return hex.EncodeToString(buf)[:length]
}
