package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"
)

func TestGenerateVerifier(t *testing.T) {
	t.Run("produces requested length", func(t *testing.T) {
		for _, length := range []int{43, 64, 96, 128} {
			verifier, err := GenerateVerifier(length)
			if err != nil {
				t.Fatalf("GenerateVerifier(%d) failed: %v", length, err)
			}
			if len(verifier) != length {
				t.Errorf("expected length %d, got %d", length, len(verifier))
			}
		}
	})

	t.Run("uses only unreserved characters", func(t *testing.T) {
		verifier, err := GenerateVerifier(128)
		if err != nil {
			t.Fatalf("GenerateVerifier failed: %v", err)
		}

		for _, c := range verifier {
			if !strings.ContainsRune(verifierAlphabet, c) {
				t.Errorf("verifier contains character outside alphabet: %q", c)
			}
		}
	})

	t.Run("non-positive length falls back to default", func(t *testing.T) {
		verifier, err := GenerateVerifier(0)
		if err != nil {
			t.Fatalf("GenerateVerifier failed: %v", err)
		}
		if len(verifier) != DefaultVerifierLength {
			t.Errorf("expected default length %d, got %d", DefaultVerifierLength, len(verifier))
		}
	})

	t.Run("successive calls differ", func(t *testing.T) {
		a, err := GenerateVerifier(64)
		if err != nil {
			t.Fatalf("GenerateVerifier failed: %v", err)
		}
		b, err := GenerateVerifier(64)
		if err != nil {
			t.Fatalf("GenerateVerifier failed: %v", err)
		}
		if a == b {
			t.Error("expected two generated verifiers to differ")
		}
	})
}

func TestChallengeFromVerifier(t *testing.T) {
	t.Run("is deterministic", func(t *testing.T) {
		verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
		if ChallengeFromVerifier(verifier) != ChallengeFromVerifier(verifier) {
			t.Error("expected identical challenges for identical verifiers")
		}
	})

	t.Run("matches manual S256 computation", func(t *testing.T) {
		verifier := "test_verifier_value"
		sum := sha256.Sum256([]byte(verifier))
		expected := base64.RawURLEncoding.EncodeToString(sum[:])

		if got := ChallengeFromVerifier(verifier); got != expected {
			t.Errorf("expected challenge %s, got %s", expected, got)
		}
	})

	t.Run("output is URL safe and unpadded", func(t *testing.T) {
		verifier, err := GenerateVerifier(64)
		if err != nil {
			t.Fatalf("GenerateVerifier failed: %v", err)
		}

		challenge := ChallengeFromVerifier(verifier)
		if strings.ContainsAny(challenge, "+/=") {
			t.Errorf("challenge contains non-URL-safe characters: %s", challenge)
		}
		if len(challenge) != 43 {
			t.Errorf("expected 43-character challenge for a 32-byte digest, got %d", len(challenge))
		}
	})
}
