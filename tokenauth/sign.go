package tokenauth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dyshay/agentauth"
)

// SignInput is the information needed to mint a new capability token.
type SignInput struct {
	Subject      string
	Capabilities agentauth.AgentCapabilityScore
	ModelFamily  string
	ChallengeIDs []string
}

// Signer mints HS256-signed capability tokens under a shared secret.
type Signer struct {
	secret []byte
}

// NewSigner builds a Signer over the given HMAC secret.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign mints a new token valid for ttl, embedding the given capability
// score, model family, and challenge ids.
func (s *Signer) Sign(input SignInput, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   input.Subject,
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Capabilities:     input.Capabilities,
		ModelFamily:      input.ModelFamily,
		ChallengeIDs:     input.ChallengeIDs,
		AgentAuthVersion: Version,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
