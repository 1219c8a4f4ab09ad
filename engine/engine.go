package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/dyshay/agentauth"
	"github.com/dyshay/agentauth/pomi"
	"github.com/dyshay/agentauth/timing"
	"github.com/dyshay/agentauth/tokenauth"
)

// zeroScore is returned alongside every failed solve attempt.
var zeroScore = agentauth.AgentCapabilityScore{}

// Engine orchestrates challenge issuance, timing/PoMI analysis, and
// capability token issuance.
type Engine struct {
	store    agentauth.ChallengeStore
	registry *agentauth.DriverRegistry
	signer   *tokenauth.Signer
	verifier *tokenauth.Verifier

	challengeTTLSeconds int64
	tokenTTLSeconds     int64
	minScore            float64

	timingAnalyzer *timing.Analyzer
	sessionTracker *timing.SessionTracker

	pomiConfig      pomi.Config
	canaryInjector  *pomi.Injector
	modelClassifier *pomi.Classifier
}

// New builds an Engine from cfg, registering every driver in
// cfg.Drivers and wiring up timing analysis and PoMI canary injection
// if enabled.
func New(cfg Config) (*Engine, error) {
	registry := agentauth.NewDriverRegistry()
	for _, d := range cfg.Drivers {
		if err := registry.Register(d); err != nil {
			return nil, err
		}
	}

	e := &Engine{
		store:               cfg.Store,
		registry:            registry,
		signer:              tokenauth.NewSigner(cfg.Secret),
		verifier:            tokenauth.NewVerifier(cfg.Secret),
		challengeTTLSeconds: orDefaultInt(cfg.ChallengeTTLSeconds, 30),
		tokenTTLSeconds:     orDefaultInt(cfg.TokenTTLSeconds, 3600),
		minScore:            orDefaultFloat(cfg.MinScore, 0.7),
		pomiConfig:          cfg.PoMI,
	}

	if cfg.Timing.Enabled {
		e.timingAnalyzer = timing.NewAnalyzer(cfg.Timing)
		if cfg.Timing.SessionTracking {
			e.sessionTracker = timing.NewSessionTracker()
		}
	}

	if cfg.PoMI.Enabled {
		catalog := pomi.NewCatalog(cfg.PoMI.Canaries)
		e.canaryInjector = pomi.NewInjector(catalog)
		families := cfg.PoMI.ModelFamilies
		if len(families) == 0 {
			families = []string{"gpt-4-class", "claude-3-class", "gemini-class", "llama-class", "mistral-class"}
		}
		e.modelClassifier = pomi.NewClassifier(families, orDefaultFloat(cfg.PoMI.ConfidenceThreshold, 0.5))
	}

	return e, nil
}

func orDefaultInt(v, def int64) int64 {
	if v != 0 {
		return v
	}
	return def
}

func orDefaultFloat(v, def float64) float64 {
	if v != 0 {
		return v
	}
	return def
}

// RegisterDriver adds an additional driver after construction.
func (e *Engine) RegisterDriver(d agentauth.ChallengeDriver) error {
	return e.registry.Register(d)
}

// InitChallenge selects a driver matching opts.Dimensions, generates a
// challenge, optionally injects canary probes, and stores it.
func (e *Engine) InitChallenge(ctx context.Context, opts agentauth.InitChallengeOptions) (agentauth.InitChallengeResult, error) {
	difficulty := opts.Difficulty
	if difficulty == "" {
		difficulty = agentauth.DifficultyMedium
	}

	selected, err := e.registry.Select(opts.Dimensions, 1)
	if err != nil {
		return agentauth.InitChallengeResult{}, err
	}
	driver := selected[0]

	id := agentauth.GenerateID()
	sessionToken := agentauth.GenerateSessionToken()
	now := time.Now().Unix()
	expiresAt := now + e.challengeTTLSeconds

	payload, answer, err := driver.Generate(difficulty)
	if err != nil {
		return agentauth.InitChallengeResult{}, fmt.Errorf("generating challenge: %w", err)
	}

	// Hash the answer against the original, pre-injection payload.
	answerHash, err := driver.ComputeAnswerHash(payload, answer)
	if err != nil {
		return agentauth.InitChallengeResult{}, fmt.Errorf("hashing answer: %w", err)
	}

	finalPayload := payload
	var injectedCanaries []pomi.Canary

	if e.canaryInjector != nil {
		canariesPer := e.pomiConfig.CanariesPerChallenge
		if canariesPer == 0 {
			canariesPer = 2
		}
		result := e.canaryInjector.Inject(payload.Instructions, canariesPer, nil)
		finalPayload.Instructions = result.Instructions
		if len(result.ContextExtra) > 0 {
			if finalPayload.Context == nil {
				finalPayload.Context = make(map[string]any, len(result.ContextExtra))
			}
			for k, v := range result.ContextExtra {
				finalPayload.Context[k] = v
			}
		}
		injectedCanaries = result.Injected
	}

	challenge := agentauth.Challenge{
		ID:           id,
		SessionToken: sessionToken,
		Payload:      finalPayload,
		Difficulty:   difficulty,
		Dimensions:   driver.Dimensions(),
		CreatedAt:    now,
		ExpiresAt:    expiresAt,
	}

	data := agentauth.ChallengeData{
		Challenge:         challenge,
		AnswerHash:        answerHash,
		Attempts:          0,
		MaxAttempts:       3,
		CreatedAt:         now,
		CreatedAtServerMs: float64(time.Now().UnixNano()) / 1e6,
		InjectedCanaries:  injectedCanaries,
		SessionKey:        opts.SessionID,
	}

	if err := e.store.Set(ctx, id, data, e.challengeTTLSeconds*1000); err != nil {
		return agentauth.InitChallengeResult{}, fmt.Errorf("storing challenge: %w", err)
	}

	return agentauth.InitChallengeResult{
		Challenge: challenge,
		TTLMs:     e.challengeTTLSeconds * 1000,
	}, nil
}

// GetChallenge fetches a stored challenge by id, verifying the caller
// holds its session token, and strips the session token and any
// driver/canary bookkeeping context before returning it to the solver.
func (e *Engine) GetChallenge(ctx context.Context, id, sessionToken string) (agentauth.Challenge, bool, error) {
	data, ok, err := e.store.Get(ctx, id)
	if err != nil {
		return agentauth.Challenge{}, false, err
	}
	if !ok {
		return agentauth.Challenge{}, false, nil
	}
	if !agentauth.TimingSafeEqual(data.Challenge.SessionToken, sessionToken) {
		return agentauth.Challenge{}, false, nil
	}

	view := data.Challenge
	view.SessionToken = ""
	view.Payload.Context = nil
	return view, true, nil
}

// SolveChallenge verifies a submitted answer's HMAC and correctness,
// analyzes response timing and (if PoMI is enabled) canary responses,
// and on success mints a capability token. A challenge is single-use: an
// invalid HMAC never mutates the store, so a bad guess never burns the
// attempt, but once the HMAC is confirmed valid the entry is claimed via
// the store's atomic GetAndDelete, so of any number of concurrent
// solves racing on the same id, exactly one observes the live entry and
// proceeds; every other racer sees it already gone and reports expired.
func (e *Engine) SolveChallenge(ctx context.Context, id string, input agentauth.SolveInput) (agentauth.VerifyResult, error) {
	precheck, ok, err := e.store.Get(ctx, id)
	if err != nil {
		return agentauth.VerifyResult{}, err
	}
	if !ok {
		return agentauth.VerifyResult{Success: false, Score: zeroScore, Reason: agentauth.ReasonExpired}, nil
	}

	expectedHMAC := agentauth.HMACSHA256Hex(input.Answer, precheck.Challenge.SessionToken)
	if !agentauth.TimingSafeEqual(expectedHMAC, input.HMAC) {
		return agentauth.VerifyResult{Success: false, Score: zeroScore, Reason: agentauth.ReasonInvalidHMAC}, nil
	}

	data, ok, err := e.store.GetAndDelete(ctx, id)
	if err != nil {
		return agentauth.VerifyResult{}, err
	}
	if !ok {
		// Another concurrent solve with a valid HMAC already claimed this
		// challenge, or it expired between the precheck and the claim.
		return agentauth.VerifyResult{Success: false, Score: zeroScore, Reason: agentauth.ReasonExpired}, nil
	}

	driver, ok := e.registry.Get(data.Challenge.Payload.Type)
	if !ok {
		return agentauth.VerifyResult{Success: false, Score: zeroScore, Reason: agentauth.ReasonWrongAnswer}, nil
	}

	correct, err := driver.Verify(data.Challenge.Payload, data.AnswerHash, input.Answer)
	if err != nil {
		return agentauth.VerifyResult{}, err
	}
	if !correct {
		return agentauth.VerifyResult{Success: false, Score: zeroScore, Reason: agentauth.ReasonWrongAnswer}, nil
	}

	var timingAnalysis *timing.Analysis
	if e.timingAnalyzer != nil {
		nowMs := float64(time.Now().UnixNano()) / 1e6
		var baseElapsed float64
		if data.CreatedAtServerMs != 0 {
			baseElapsed = nowMs - data.CreatedAtServerMs
		} else {
			baseElapsed = nowMs - float64(data.Challenge.CreatedAt)*1000
		}

		rttMs := 0.0
		if input.ClientRTTMs > 0 {
			rttMs = math.Min(input.ClientRTTMs, baseElapsed*0.5)
		}
		elapsedMs := baseElapsed - rttMs

		analysis := e.timingAnalyzer.Analyze(elapsedMs, data.Challenge.Payload.Type, string(data.Challenge.Difficulty), rttMs)
		timingAnalysis = &analysis

		if analysis.Zone == timing.ZoneTooFast {
			return agentauth.VerifyResult{Success: false, Score: zeroScore, Reason: agentauth.ReasonTooFast, TimingAnalysis: timingAnalysis}, nil
		}
		if analysis.Zone == timing.ZoneTimeout {
			return agentauth.VerifyResult{Success: false, Score: zeroScore, Reason: agentauth.ReasonTimeout, TimingAnalysis: timingAnalysis}, nil
		}
	}

	var patternAnalysis *timing.PatternAnalysis
	if e.timingAnalyzer != nil && len(input.StepTimings) > 0 {
		pa := e.timingAnalyzer.AnalyzePattern(input.StepTimings)
		patternAnalysis = &pa
	}

	score := computeScore(data, timingAnalysis, patternAnalysis)

	var modelIdentity *pomi.ModelIdentification
	if e.modelClassifier != nil && len(data.InjectedCanaries) > 0 {
		identity := e.modelClassifier.Classify(data.InjectedCanaries, input.CanaryResponses)
		modelIdentity = &identity
	}

	modelFamily := "unknown"
	if modelIdentity != nil && modelIdentity.Family != "unknown" {
		modelFamily = modelIdentity.Family
	} else if m, ok := input.Metadata["model"]; ok && m != "" {
		modelFamily = m
	}

	var sessionAnomalies []timing.SessionAnomaly
	if e.sessionTracker != nil && timingAnalysis != nil {
		sessionKey := data.SessionKey
		if sessionKey == "" {
			sessionKey = input.Metadata["model"]
		}
		if sessionKey != "" {
			e.sessionTracker.Record(sessionKey, timingAnalysis.ElapsedMs, timingAnalysis.Zone)
			if anomalies := e.sessionTracker.Analyze(sessionKey); len(anomalies) > 0 {
				sessionAnomalies = anomalies
			}
		}
	}

	token, err := e.signer.Sign(tokenauth.SignInput{
		Subject:      id,
		Capabilities: score,
		ModelFamily:  modelFamily,
		ChallengeIDs: []string{id},
	}, time.Duration(e.tokenTTLSeconds)*time.Second)
	if err != nil {
		return agentauth.VerifyResult{}, fmt.Errorf("signing token: %w", err)
	}

	return agentauth.VerifyResult{
		Success:          true,
		Score:            score,
		Token:            token,
		ModelIdentity:    modelIdentity,
		TimingAnalysis:   timingAnalysis,
		PatternAnalysis:  patternAnalysis,
		SessionAnomalies: sessionAnomalies,
	}, nil
}

// VerifyToken checks a previously issued capability token's signature,
// issuer, and expiration.
func (e *Engine) VerifyToken(token string) agentauth.VerifyTokenResult {
	claims, authErr := e.verifier.Verify(token)
	if authErr != nil {
		return agentauth.VerifyTokenResult{Valid: false, Err: authErr}
	}

	return agentauth.VerifyTokenResult{
		Valid: true,
		Claims: map[string]any{
			"sub":               claims.Subject,
			"jti":               claims.ID,
			"capabilities":      claims.Capabilities,
			"model_family":      claims.ModelFamily,
			"challenge_ids":     claims.ChallengeIDs,
			"agentauth_version": claims.AgentAuthVersion,
			"iat":               claims.IssuedAt.Unix(),
			"exp":               claims.ExpiresAt.Unix(),
		},
	}
}
