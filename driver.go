package agentauth

import "context"

// ChallengeStore persists in-flight challenges keyed by their id, with a
// TTL enforced by the store implementation.
type ChallengeStore interface {
	Set(ctx context.Context, id string, data ChallengeData, ttlMs int64) error
	Get(ctx context.Context, id string) (ChallengeData, bool, error)
	Delete(ctx context.Context, id string) error

	// GetAndDelete atomically fetches and removes id's entry under a
	// single critical section, so that of any number of concurrent
	// callers racing on the same id, exactly one observes (data, true)
	// and the rest observe (ChallengeData{}, false) — the store's
	// at-most-once guarantee for a single solve attempt.
	GetAndDelete(ctx context.Context, id string) (ChallengeData, bool, error)
}

// ChallengeDriver generates, hashes, and verifies one family of
// challenges. Implementations are stateless: all per-challenge state
// lives in the ChallengePayload's Context and in the ChallengeStore.
type ChallengeDriver interface {
	Name() string
	Dimensions() []string
	EstimatedHumanTimeMs() int64
	EstimatedAITimeMs() int64

	// Generate produces a new challenge payload for the given difficulty,
	// along with the correct answer (never sent to the solver).
	Generate(difficulty Difficulty) (payload ChallengePayload, answer string, err error)

	// ComputeAnswerHash derives the answer hash that Verify compares a
	// submitted answer's hash against, from the original
	// (pre-canary-injection) payload and the generated answer.
	ComputeAnswerHash(payload ChallengePayload, answer string) (string, error)

	// Verify checks a submitted answer against the stored answer hash,
	// returning whether it's acceptable. Implementations never need the
	// original plaintext answer again: they recompute the hash of
	// submitted and compare it to answerHash in constant time.
	Verify(payload ChallengePayload, answerHash, submitted string) (bool, error)
}
