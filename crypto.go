package agentauth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// SHA256Hex returns the lowercase hex-encoded SHA-256 digest of data.
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HMACSHA256Bytes returns the raw HMAC-SHA256 of message under key.
func HMACSHA256Bytes(key, message []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return mac.Sum(nil)
}

// HMACSHA256Hex computes HMAC-SHA256 of message under the UTF-8 bytes of
// secret, returning the lowercase hex digest. Mirrors the wire format used
// to HMAC a submitted answer under its challenge's session token.
func HMACSHA256Hex(message, secret string) string {
	return hex.EncodeToString(HMACSHA256Bytes([]byte(secret), []byte(message)))
}

// TimingSafeEqual compares two hex/opaque strings in constant time.
func TimingSafeEqual(a, b string) bool {
	if len(a) != len(b) {
		// Strings of unequal length are never a match. This returns early
		// without a constant-time compare; lengths of hex digests are
		// public anyway.
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// RandomBytes returns n cryptographically random bytes.
func RandomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("agentauth: reading random bytes: %v", err))
	}
	return b
}

// ToHex lowercase hex-encodes data.
func ToHex(data []byte) string {
	return hex.EncodeToString(data)
}

// FromHex decodes a lowercase (or mixed-case) hex string.
func FromHex(s string) ([]byte, error) {
	return hex.DecodeString(s)
}

// GenerateID returns a new challenge identifier of the form "ch_<32 hex>".
func GenerateID() string {
	return "ch_" + ToHex(RandomBytes(16))
}

// GenerateSessionToken returns a new per-challenge HMAC key of the form
// "st_<48 hex>".
func GenerateSessionToken() string {
	return "st_" + ToHex(RandomBytes(24))
}

// DeriveSubkey derives a length-byte key from ikm via HKDF-SHA256 (RFC
// 5869), using salt and info for domain separation. Used to derive
// per-purpose subkeys from a single engine secret without ever handling
// cryptography beyond SHA-256/HMAC-SHA256.
func DeriveSubkey(ikm, salt []byte, info string, length int) ([]byte, error) {
	reader := hkdf.New(sha256.New, ikm, salt, []byte(info))
	out := make([]byte, length)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, fmt.Errorf("deriving subkey: %w", err)
	}
	return out, nil
}
