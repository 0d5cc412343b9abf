package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// KeySet holds the SHA-256 hashes of the static API keys.
type KeySet struct {
	hashes [][sha256.Size]byte
}

// NewKeySet hashes keys, skipping empty ones.
func NewKeySet(keys []string) *KeySet {
	ks := &KeySet{}
	for _, k := range keys {
		if k == "" {
			continue
		}
		ks.hashes = append(ks.hashes, sha256.Sum256([]byte(k)))
	}
	return ks
}

// Len returns the number of keys.
func (ks *KeySet) Len() int {
	if ks == nil {
		return 0
	}
	return len(ks.hashes)
}

// Check reports whether key is one of the configured keys. Every stored hash
// is compared so the time taken does not depend on which key matched.
func (ks *KeySet) Check(key string) bool {
	if ks.Len() == 0 || key == "" {
		return false
	}
	sum := sha256.Sum256([]byte(key))
	match := 0
	for i := range ks.hashes {
		match |= subtle.ConstantTimeCompare(sum[:], ks.hashes[i][:])
	}
	return match == 1
}

// GenerateSecureString generates a cryptographically secure random string.
func GenerateSecureString(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}
