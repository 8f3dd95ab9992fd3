package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashText computes the SHA-256 hash of normalized source text.
func HashText(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}

// Key builds the backend key for the translation of text into lang.
func Key(lang, text string) string {
	return lang + ":" + HashText(text)
}
