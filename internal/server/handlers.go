package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dyshay/agentauth"
	"github.com/dyshay/agentauth/engine"
	"github.com/dyshay/agentauth/tokenauth"
)

// handlers implements the four reference HTTP endpoints over an engine.
type handlers struct {
	engine   *engine.Engine
	logger   *slog.Logger
	secret   string
	minScore float64
}

type initChallengeRequest struct {
	Difficulty string   `json:"difficulty,omitempty"`
	Dimensions []string `json:"dimensions,omitempty"`
}

type initChallengeResponse struct {
	ID           string `json:"id"`
	SessionToken string `json:"session_token"`
	ExpiresAt    int64  `json:"expires_at"`
	TTLSeconds   int64  `json:"ttl_seconds"`
}

func (h *handlers) initChallenge(w http.ResponseWriter, r *http.Request) {
	var req initChallengeRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	opts := agentauth.InitChallengeOptions{
		Dimensions: req.Dimensions,
		Difficulty: agentauth.Difficulty(req.Difficulty),
	}

	result, err := h.engine.InitChallenge(r.Context(), opts)
	if err != nil {
		h.logger.Error("agentauthd.init_challenge.error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to initialize challenge")
		return
	}

	writeJSON(w, http.StatusCreated, initChallengeResponse{
		ID:           result.Challenge.ID,
		SessionToken: result.Challenge.SessionToken,
		ExpiresAt:    result.Challenge.ExpiresAt,
		TTLSeconds:   result.TTLMs / 1000,
	})
}

type getChallengeResponse struct {
	ID         string                     `json:"id"`
	Payload    agentauth.ChallengePayload `json:"payload"`
	Difficulty agentauth.Difficulty       `json:"difficulty"`
	Dimensions []string                   `json:"dimensions"`
	CreatedAt  int64                      `json:"created_at"`
	ExpiresAt  int64                      `json:"expires_at"`
}

func (h *handlers) getChallenge(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sessionToken := bearerToken(r)

	challenge, ok, err := h.engine.GetChallenge(r.Context(), id, sessionToken)
	if err != nil {
		h.logger.Error("agentauthd.get_challenge.error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch challenge")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "challenge not found")
		return
	}

	writeJSON(w, http.StatusOK, getChallengeResponse{
		ID:         challenge.ID,
		Payload:    challenge.Payload,
		Difficulty: challenge.Difficulty,
		Dimensions: challenge.Dimensions,
		CreatedAt:  challenge.CreatedAt,
		ExpiresAt:  challenge.ExpiresAt,
	})
}

type solveChallengeRequest struct {
	Answer          string            `json:"answer"`
	HMAC            string            `json:"hmac"`
	CanaryResponses map[string]string `json:"canary_responses,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	ClientRTTMs     float64           `json:"client_rtt_ms,omitempty"`
	StepTimings     []float64         `json:"step_timings,omitempty"`
}

type solveChallengeResponse struct {
	Success          bool                          `json:"success"`
	Score            agentauth.AgentCapabilityScore `json:"score"`
	Token            string                         `json:"token,omitempty"`
	Reason           agentauth.FailReason           `json:"reason,omitempty"`
	ModelIdentity    *modelIdentityView             `json:"model_identity,omitempty"`
	TimingAnalysis   any                             `json:"timing_analysis,omitempty"`
	PatternAnalysis  any                             `json:"pattern_analysis,omitempty"`
	SessionAnomalies any                             `json:"session_anomalies,omitempty"`
}

type modelIdentityView struct {
	Family     string  `json:"family"`
	Confidence float64 `json:"confidence,omitempty"`
}

func (h *handlers) solveChallenge(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req solveChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.engine.SolveChallenge(r.Context(), id, agentauth.SolveInput{
		Answer:          req.Answer,
		HMAC:            req.HMAC,
		CanaryResponses: req.CanaryResponses,
		Metadata:        req.Metadata,
		ClientRTTMs:     req.ClientRTTMs,
		StepTimings:     req.StepTimings,
	})
	if err != nil {
		h.logger.Error("agentauthd.solve_challenge.error", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to verify challenge")
		return
	}

	resp := solveChallengeResponse{
		Success: result.Success,
		Score:   result.Score,
		Token:   result.Token,
		Reason:  result.Reason,
	}
	if result.ModelIdentity != nil {
		resp.ModelIdentity = &modelIdentityView{
			Family:     result.ModelIdentity.Family,
			Confidence: result.ModelIdentity.Confidence,
		}
	}
	if result.TimingAnalysis != nil {
		resp.TimingAnalysis = result.TimingAnalysis
	}
	if result.PatternAnalysis != nil {
		resp.PatternAnalysis = result.PatternAnalysis
	}
	if len(result.SessionAnomalies) > 0 {
		resp.SessionAnomalies = result.SessionAnomalies
	}

	writeJSON(w, http.StatusOK, resp)
}

type verifyTokenResponse struct {
	Valid        bool   `json:"valid"`
	Capabilities any    `json:"capabilities,omitempty"`
	ModelFamily  string `json:"model_family,omitempty"`
	IssuedAt     int64  `json:"issued_at,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
}

func (h *handlers) verifyToken(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)

	result := h.engine.VerifyToken(token)
	if !result.Valid {
		status := http.StatusUnauthorized
		if result.Err != nil {
			status = result.Err.Status
		}
		writeJSON(w, status, verifyTokenResponse{Valid: false})
		return
	}

	guardResult, guardErr := tokenauth.VerifyRequest(token, tokenauth.GuardConfig{Secret: h.secret, MinScore: h.minScore})
	if guardResult != nil {
		for k, v := range guardResult.Headers {
			w.Header().Set(k, v)
		}
	} else if guardErr != nil {
		w.Header().Set(tokenauth.HeaderStatus, "insufficient_score")
	}

	writeJSON(w, http.StatusOK, verifyTokenResponse{
		Valid:        true,
		Capabilities: result.Claims["capabilities"],
		ModelFamily:  asString(result.Claims["model_family"]),
		IssuedAt:     asInt64(result.Claims["iat"]),
		ExpiresAt:    asInt64(result.Claims["exp"]),
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if strings.HasPrefix(auth, prefix) {
		return strings.TrimPrefix(auth, prefix)
	}
	return ""
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt64(v any) int64 {
	n, _ := v.(int64)
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
