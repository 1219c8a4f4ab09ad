package tokenauth

import (
	"testing"
	"time"

	"github.com/dyshay/agentauth"
)

func goodScore() agentauth.AgentCapabilityScore {
	return agentauth.AgentCapabilityScore{Reasoning: 0.9, Execution: 0.95, Autonomy: 0.9, Speed: 0.95, Consistency: 0.92}
}

func lowScore() agentauth.AgentCapabilityScore {
	return agentauth.AgentCapabilityScore{Reasoning: 0.2, Execution: 0.2, Autonomy: 0.2, Speed: 0.2, Consistency: 0.2}
}

func TestVerifyRequest_Success(t *testing.T) {
	secret := "a-shared-secret-at-least-this-long"
	signer := NewSigner(secret)
	token, err := signer.Sign(SignInput{
		Subject:      "ch_1",
		Capabilities: goodScore(),
		ModelFamily:  "gpt-4-class",
		ChallengeIDs: []string{"ch_1"},
	}, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	result, gerr := VerifyRequest(token, GuardConfig{Secret: secret, MinScore: 0.7})
	if gerr != nil {
		t.Fatalf("VerifyRequest: %v", gerr)
	}
	if result.Headers[HeaderStatus] != "verified" {
		t.Errorf("expected verified status header, got %v", result.Headers)
	}
	if result.Headers[HeaderModelFamily] != "gpt-4-class" {
		t.Errorf("expected model family header, got %v", result.Headers)
	}
	if result.Headers[HeaderChallengeID] != "ch_1" {
		t.Errorf("expected challenge id header, got %v", result.Headers)
	}
}

func TestVerifyRequest_InsufficientScore(t *testing.T) {
	secret := "a-shared-secret-at-least-this-long"
	signer := NewSigner(secret)
	token, err := signer.Sign(SignInput{Subject: "ch_1", Capabilities: lowScore()}, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	_, gerr := VerifyRequest(token, GuardConfig{Secret: secret, MinScore: 0.7})
	if gerr == nil {
		t.Fatal("expected insufficient score error")
	}
	if gerr.Type != agentauth.ErrInsufficientScore {
		t.Errorf("expected insufficient_score, got %s", gerr.Type)
	}
	if gerr.Status != 403 {
		t.Errorf("expected HTTP 403, got %d", gerr.Status)
	}
}

func TestVerifyRequest_DefaultMinScore(t *testing.T) {
	secret := "a-shared-secret-at-least-this-long"
	signer := NewSigner(secret)
	borderline := agentauth.AgentCapabilityScore{Reasoning: 0.71, Execution: 0.71, Autonomy: 0.71, Speed: 0.71, Consistency: 0.71}
	token, err := signer.Sign(SignInput{Subject: "ch_1", Capabilities: borderline}, time.Hour)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if _, gerr := VerifyRequest(token, GuardConfig{Secret: secret}); gerr != nil {
		t.Errorf("expected the default 0.7 min score to accept a 0.71 mean, got %v", gerr)
	}
}

func TestFormatCapabilitiesParseCapabilities_RoundTrip(t *testing.T) {
	score := goodScore()
	header := FormatCapabilities(score)
	parsed := ParseCapabilities(header)

	if parsed["reasoning"] != score.Reasoning {
		t.Errorf("expected reasoning %v, got %v", score.Reasoning, parsed["reasoning"])
	}
	if parsed["consistency"] != score.Consistency {
		t.Errorf("expected consistency %v, got %v", score.Consistency, parsed["consistency"])
	}
}
