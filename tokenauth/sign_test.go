package tokenauth

import (
	"testing"
	"time"

	"github.com/dyshay/agentauth"
)

func TestSignerVerifier_RoundTrip(t *testing.T) {
	signer := NewSigner("a-shared-secret-at-least-this-long")
	verifier := NewVerifier("a-shared-secret-at-least-this-long")

	token, err := signer.Sign(SignInput{
		Subject:      "ch_abc123",
		Capabilities: agentauth.AgentCapabilityScore{Reasoning: 0.9, Execution: 0.95, Autonomy: 0.9, Speed: 0.95, Consistency: 0.92},
		ModelFamily:  "claude-3-class",
		ChallengeIDs: []string{"ch_abc123"},
	}, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	claims, verr := verifier.Verify(token)
	if verr != nil {
		t.Fatalf("Verify: %v", verr)
	}
	if claims.Subject != "ch_abc123" {
		t.Errorf("expected subject ch_abc123, got %s", claims.Subject)
	}
	if claims.ModelFamily != "claude-3-class" {
		t.Errorf("unexpected model family %s", claims.ModelFamily)
	}
	if claims.AgentAuthVersion != Version {
		t.Errorf("expected version %s, got %s", Version, claims.AgentAuthVersion)
	}
	if claims.Issuer != Issuer {
		t.Errorf("expected issuer %s, got %s", Issuer, claims.Issuer)
	}
}

func TestVerifier_RejectsWrongSecret(t *testing.T) {
	signer := NewSigner("secret-one-padded-to-length")
	verifier := NewVerifier("secret-two-padded-to-length")

	token, err := signer.Sign(SignInput{Subject: "ch_1"}, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	_, verr := verifier.Verify(token)
	if verr == nil {
		t.Fatal("expected verification to fail under a different secret")
	}
	if verr.Type != agentauth.ErrInvalidSignature {
		t.Errorf("expected invalid_signature, got %s", verr.Type)
	}
}

func TestVerifier_RejectsExpiredToken(t *testing.T) {
	signer := NewSigner("a-shared-secret-at-least-this-long")
	verifier := NewVerifier("a-shared-secret-at-least-this-long")

	token, err := signer.Sign(SignInput{Subject: "ch_1"}, -time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	_, verr := verifier.Verify(token)
	if verr == nil {
		t.Fatal("expected verification to fail for an expired token")
	}
	if verr.Type != agentauth.ErrTokenExpired {
		t.Errorf("expected token_expired, got %s", verr.Type)
	}
}

func TestVerifier_RejectsGarbage(t *testing.T) {
	verifier := NewVerifier("a-shared-secret-at-least-this-long")
	_, verr := verifier.Verify("not-a-jwt-at-all")
	if verr == nil {
		t.Fatal("expected verification to fail for a non-JWT string")
	}
}

func TestVerifier_Decode_DoesNotRequireValidSignature(t *testing.T) {
	signer := NewSigner("secret-one-padded-to-length")
	verifier := NewVerifier("a-completely-different-secret")

	token, err := signer.Sign(SignInput{Subject: "ch_1"}, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	claims, derr := verifier.Decode(token)
	if derr != nil {
		t.Fatalf("Decode: %v", derr)
	}
	if claims.Subject != "ch_1" {
		t.Errorf("expected subject ch_1, got %s", claims.Subject)
	}
}
