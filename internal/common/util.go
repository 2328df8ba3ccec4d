package common

import "crypto/rand"

// GenerateRandByteArray returns size bytes from crypto/rand. It returns nil
// if the system random source fails.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return nil
	}
	return b
}

// WipeByteArray overwrites b with zeros. Used for plaintext passwords read
// from the terminal.
func WipeByteArray(b []byte) {
	clear(b)
}
