package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateID returns a crypto-random identifier of the given length.
func GenerateID(length int) string {
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(idAlphabet))))
		if err != nil {
			// crypto/rand failing means the platform entropy source is
			// broken; nothing sensible to continue with.
			panic("crypto/rand failure: " + err.Error())
		}
		out[i] = idAlphabet[n.Int64()]
	}
	return string(out)
}

// SuggestName offers an alternative for a taken display name by
// appending the would-be player number, e.g. "Ayşe" -> "Ayşe3".
func SuggestName(taken string, playerCount int) string {
	return fmt.Sprintf("%s%d", taken, playerCount+1)
}

// Shuffle permutes a slice in place with a crypto-random Fisher-Yates
// pass; used for question sampling and voting options.
func Shuffle[T any](items []T) {
	for i := len(items) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			continue
		}
		j := int(n.Int64())
		items[i], items[j] = items[j], items[i]
	}
}
