// Package tokenauth signs and verifies the JWT capability tokens issued
// after a successful challenge solve, and implements the request guard
// that protected resources use to check a bearer token's score.
package tokenauth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/dyshay/agentauth"
)

// Issuer is the fixed JWT issuer claim every token is signed and
// verified against.
const Issuer = "agentauth"

// Version is embedded in every signed token's agentauth_version claim.
const Version = "1.0.0"

// Claims is the full claim set embedded in a capability token, combining
// the registered JWT claims with AgentAuth's own.
type Claims struct {
	jwt.RegisteredClaims
	Capabilities     agentauth.AgentCapabilityScore `json:"capabilities"`
	ModelFamily      string                         `json:"model_family"`
	ChallengeIDs     []string                       `json:"challenge_ids"`
	AgentAuthVersion string                         `json:"agentauth_version"`
}
