package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// verifierAlphabet is the unreserved character set used for PKCE verifiers.
const verifierAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// DefaultVerifierLength is the verifier length used for login flows.
const DefaultVerifierLength = 64

// GenerateVerifier produces a random PKCE code verifier of exactly length
// characters drawn from the unreserved alphabet, using a cryptographically
// secure random source.
func GenerateVerifier(length int) (string, error) {
	if length <= 0 {
		length = DefaultVerifierLength
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	out := make([]byte, length)
	for i, b := range buf {
		out[i] = verifierAlphabet[int(b)%len(verifierAlphabet)]
	}

	return string(out), nil
}

// ChallengeFromVerifier computes the S256 code challenge for a verifier:
// the base64url encoding (unpadded) of the SHA-256 digest of its UTF-8 bytes.
func ChallengeFromVerifier(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
