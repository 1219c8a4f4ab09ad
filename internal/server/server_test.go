package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dyshay/agentauth"
	"github.com/dyshay/agentauth/drivers"
	"github.com/dyshay/agentauth/engine"
	"github.com/dyshay/agentauth/internal/health"
	"github.com/dyshay/agentauth/store"
)

// buildTestMux builds a standalone mux over a fresh in-memory engine, the
// same way Server.New wires the production mux, without the rest of the
// server's listener/shutdown plumbing.
func buildTestMux(t *testing.T) *http.ServeMux {
	t.Helper()

	memStore := store.NewMemoryStore(time.Minute)
	t.Cleanup(memStore.Close)

	eng, err := engine.New(engine.Config{
		Secret: "test-secret-at-least-32-bytes-long!",
		Store:  memStore,
		Drivers: []agentauth.ChallengeDriver{
			drivers.CryptoNLDriver{},
			drivers.MultiStepDriver{},
			drivers.AmbiguousLogicDriver{},
			drivers.CodeExecutionDriver{},
		},
		ChallengeTTLSeconds: 30,
		TokenTTLSeconds:     3600,
		MinScore:            0.5,
	})
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}

	h := &handlers{engine: eng, logger: slog.Default(), secret: "test-secret-at-least-32-bytes-long!", minScore: 0.5}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/challenge/init", h.initChallenge)
	mux.HandleFunc("GET /v1/challenge/{id}", h.getChallenge)
	mux.HandleFunc("POST /v1/challenge/{id}/solve", h.solveChallenge)
	mux.HandleFunc("GET /v1/token/verify", h.verifyToken)
	return mux
}

func TestServer_InitAndGetChallenge(t *testing.T) {
	mux := buildTestMux(t)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/challenge/init", "application/json", bytes.NewBufferString(`{}`))
	if err != nil {
		t.Fatalf("POST init: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var initResp initChallengeResponse
	if err := json.NewDecoder(resp.Body).Decode(&initResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if initResp.ID == "" || initResp.SessionToken == "" {
		t.Fatalf("expected non-empty id/session_token, got %+v", initResp)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/challenge/"+initResp.ID, nil)
	req.Header.Set("Authorization", "Bearer "+initResp.SessionToken)
	getResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET challenge: %v", err)
	}
	defer getResp.Body.Close()
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", getResp.StatusCode)
	}

	var getBody getChallengeResponse
	if err := json.NewDecoder(getResp.Body).Decode(&getBody); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if getBody.Payload.Context != nil {
		t.Errorf("expected no context in solver-facing payload, got %v", getBody.Payload.Context)
	}
}

func TestServer_GetChallengeWrongSessionToken(t *testing.T) {
	mux := buildTestMux(t)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, _ := http.Post(srv.URL+"/v1/challenge/init", "application/json", bytes.NewBufferString(`{}`))
	var initResp initChallengeResponse
	json.NewDecoder(resp.Body).Decode(&initResp)
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/challenge/"+initResp.ID, nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	getResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET challenge: %v", err)
	}
	defer getResp.Body.Close()
	if getResp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", getResp.StatusCode)
	}
}

func TestServer_SolveChallengeWrongAnswer(t *testing.T) {
	mux := buildTestMux(t)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, _ := http.Post(srv.URL+"/v1/challenge/init", "application/json", bytes.NewBufferString(`{}`))
	var initResp initChallengeResponse
	json.NewDecoder(resp.Body).Decode(&initResp)
	resp.Body.Close()

	body, _ := json.Marshal(solveChallengeRequest{
		Answer: "definitely-wrong",
		HMAC:   agentauth.HMACSHA256Hex("definitely-wrong", initResp.SessionToken),
	})
	solveResp, err := http.Post(srv.URL+"/v1/challenge/"+initResp.ID+"/solve", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST solve: %v", err)
	}
	defer solveResp.Body.Close()

	var solveBody solveChallengeResponse
	if err := json.NewDecoder(solveResp.Body).Decode(&solveBody); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if solveBody.Success {
		t.Error("expected failure for a wrong answer")
	}
	if solveBody.Reason != agentauth.ReasonWrongAnswer {
		t.Errorf("expected wrong_answer reason, got %s", solveBody.Reason)
	}
}

func TestServer_SolveChallengeBadHMAC(t *testing.T) {
	mux := buildTestMux(t)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, _ := http.Post(srv.URL+"/v1/challenge/init", "application/json", bytes.NewBufferString(`{}`))
	var initResp initChallengeResponse
	json.NewDecoder(resp.Body).Decode(&initResp)
	resp.Body.Close()

	body, _ := json.Marshal(solveChallengeRequest{Answer: "whatever", HMAC: "0000"})
	solveResp, err := http.Post(srv.URL+"/v1/challenge/"+initResp.ID+"/solve", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST solve: %v", err)
	}
	defer solveResp.Body.Close()

	var solveBody solveChallengeResponse
	json.NewDecoder(solveResp.Body).Decode(&solveBody)
	if solveBody.Reason != agentauth.ReasonInvalidHMAC {
		t.Errorf("expected invalid_hmac reason, got %s", solveBody.Reason)
	}
}

func TestServer_VerifyTokenRejectsGarbage(t *testing.T) {
	mux := buildTestMux(t)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/v1/token/verify", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET verify: %v", err)
	}
	defer resp.Body.Close()

	var verifyBody verifyTokenResponse
	json.NewDecoder(resp.Body).Decode(&verifyBody)
	if verifyBody.Valid {
		t.Error("expected invalid for a garbage token")
	}
}

func TestServer_HealthEndpoint(t *testing.T) {
	healthHandler := health.NewHandler("0.1.0-test", []string{"crypto-nl"}, false, false, time.Now())
	srv := httptest.NewServer(healthHandler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
