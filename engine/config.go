// Package engine wires together challenge drivers, timing analysis, and
// PoMI canary classification into the server-side AgentAuth protocol:
// init a challenge, hand it to a solver, verify the answer, and mint a
// capability token.
package engine

import (
	"github.com/dyshay/agentauth"
	"github.com/dyshay/agentauth/pomi"
	"github.com/dyshay/agentauth/timing"
)

// Config configures an Engine. Store and Drivers are required; everything
// else has a zero-value-safe default matching the reference engine.
type Config struct {
	Secret   string
	Store    agentauth.ChallengeStore
	Drivers  []agentauth.ChallengeDriver

	// ChallengeTTLSeconds is how long a generated challenge stays solvable.
	// Defaults to 30.
	ChallengeTTLSeconds int64
	// TokenTTLSeconds is the lifetime of a minted capability token.
	// Defaults to 3600.
	TokenTTLSeconds int64
	// MinScore is the default minimum mean capability score a token must
	// carry to pass the request guard. Defaults to 0.7.
	MinScore float64

	Timing timing.Config
	PoMI   pomi.Config
}
