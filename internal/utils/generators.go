package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const tripCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateTripCode returns a short human-facing code like "K7PX3Q".
// Uniqueness is not guaranteed, only unlikely to collide; the code is
// a label for passengers, not a key.
func GenerateTripCode() string {
	code := make([]byte, 6)
	max := big.NewInt(int64(len(tripCodeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// Fall back to a timestamp-based code if random generation fails
			return fmt.Sprintf("T%07d", time.Now().UnixNano()%10000000)
		}
		code[i] = tripCodeAlphabet[n.Int64()]
	}
	return string(code)
}
