package utils

import (
	"crypto/rand"
)

// idAlphabet matches the PocketBase record id alphabet so rows created
// outside the app are indistinguishable from collection records.
const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

const RecordIDLength = 15

// NewRecordID returns a random 15 character record id.
func NewRecordID() string {
	id, err := RandomString(RecordIDLength, idAlphabet)
	if err != nil {
		panic(err)
	}
	return id
}

// RandomString returns a string of length n drawn from charset.
func RandomString(n int, charset string) (string, error) {
	// Make a slice of n random bytes.
	code := make([]byte, n)

	// Read into the slice.
	if _, err := rand.Read(code); err != nil {
		return "", err
	}

	// Rejection sampling keeps every character equally likely.
	limit := 256 - 256%len(charset)
	for i := 0; i < n; i++ {
		for int(code[i]) >= limit {
			var b [1]byte
			if _, err := rand.Read(b[:]); err != nil {
				return "", err
			}
			code[i] = b[0]
		}
		code[i] = charset[int(code[i])%len(charset)]
	}

	return string(code), nil
}
