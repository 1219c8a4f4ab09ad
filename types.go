// Package agentauth implements a challenge/response protocol that lets a
// server distinguish human operators from AI agents (and fingerprint
// which model family an agent belongs to) before issuing a signed
// capability token. Challenges probe reasoning, execution, memory, and
// tolerance for ambiguity; solve timing and embedded canary probes feed
// a model-identity classifier and a five-dimensional capability score.
package agentauth

import (
	"github.com/dyshay/agentauth/pomi"
	"github.com/dyshay/agentauth/timing"
)

// Difficulty is the challenge difficulty tier. Harder tiers use larger
// payloads, more steps, and wider timing tolerances.
type Difficulty string

const (
	DifficultyEasy        Difficulty = "easy"
	DifficultyMedium      Difficulty = "medium"
	DifficultyHard        Difficulty = "hard"
	DifficultyAdversarial Difficulty = "adversarial"
)

// FailReason is re-exported at package scope for callers that only need
// the solve-result reason rather than the full Error type; see errors.go.

// ChallengePayload is the type-specific body of a challenge: the
// instructions a solver reads, any binary/data material as base64, a step
// count for multi-step challenges, and a free-form context map used by
// each driver's own bookkeeping (and by canary injection).
type ChallengePayload struct {
	Type         string         `json:"type"`
	Instructions string         `json:"instructions"`
	Data         string         `json:"data,omitempty"`
	Steps        int            `json:"steps,omitempty"`
	Context      map[string]any `json:"context,omitempty"`
}

// AgentCapabilityScore is the five-dimensional capability profile
// computed after a successful solve.
type AgentCapabilityScore struct {
	Reasoning   float64 `json:"reasoning"`
	Execution   float64 `json:"execution"`
	Autonomy    float64 `json:"autonomy"`
	Speed       float64 `json:"speed"`
	Consistency float64 `json:"consistency"`
}

// Mean returns the unweighted arithmetic mean of the five dimensions,
// used by the request guard's minimum-score gate.
func (s AgentCapabilityScore) Mean() float64 {
	return (s.Reasoning + s.Execution + s.Autonomy + s.Speed + s.Consistency) / 5
}

// Challenge is the public (solver-facing) half of a generated challenge.
type Challenge struct {
	ID           string           `json:"id"`
	SessionToken string           `json:"session_token,omitempty"`
	Payload      ChallengePayload `json:"payload"`
	Difficulty   Difficulty       `json:"difficulty"`
	Dimensions   []string         `json:"dimensions"`
	CreatedAt    int64            `json:"created_at"`
	ExpiresAt    int64            `json:"expires_at"`
}

// ChallengeData is the server-side record kept in the challenge store:
// the public Challenge plus the answer hash, attempt bookkeeping, and
// whatever canaries were injected into its instructions.
type ChallengeData struct {
	Challenge         Challenge     `json:"challenge"`
	AnswerHash        string        `json:"answer_hash"`
	Attempts          int           `json:"attempts"`
	MaxAttempts       int           `json:"max_attempts"`
	CreatedAt         int64         `json:"created_at"`
	CreatedAtServerMs float64       `json:"-"`
	InjectedCanaries  []pomi.Canary `json:"-"`
	SessionKey        string        `json:"-"`
}

// InitChallengeOptions parameterizes challenge generation.
type InitChallengeOptions struct {
	Dimensions  []string
	Difficulty  Difficulty
	SessionID   string // for cross-session timing tracking
	InjectPoMI  bool
	CanaryCount int
}

// InitChallengeResult is returned from InitChallenge: the solver-facing
// Challenge (session token included so the caller can relay it) plus
// its TTL.
type InitChallengeResult struct {
	Challenge Challenge
	TTLMs     int64
}

// SolveInput is everything a solver submits back for verification.
type SolveInput struct {
	Answer          string
	HMAC            string
	CanaryResponses map[string]string
	Metadata        map[string]string
	ClientRTTMs     float64
	StepTimings     []float64
}

// VerifyResult is the outcome of solving a challenge.
type VerifyResult struct {
	Success          bool
	Score            AgentCapabilityScore
	Token            string
	Reason           FailReason
	ModelIdentity    *pomi.ModelIdentification
	TimingAnalysis   *timing.Analysis
	PatternAnalysis  *timing.PatternAnalysis
	SessionAnomalies []timing.SessionAnomaly
}

// VerifyTokenResult is the outcome of verifying a previously issued
// token, e.g. on a downstream protected resource.
type VerifyTokenResult struct {
	Valid  bool
	Claims map[string]any
	Err    *Error
}
