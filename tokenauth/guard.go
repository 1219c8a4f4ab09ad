package tokenauth

import (
	"fmt"

	"github.com/dyshay/agentauth"
)

// GuardConfig parameterizes VerifyRequest.
type GuardConfig struct {
	Secret   string
	MinScore float64 // default 0.7 if zero
}

// GuardResult is the outcome of a successful request guard check: the
// verified claims plus the AgentAuth-* headers a caller should attach to
// its response.
type GuardResult struct {
	Claims  *Claims
	Headers map[string]string
}

// VerifyRequest verifies a bearer token and checks its mean capability
// score against the configured minimum, returning 401 for invalid tokens
// and 403 for insufficient scores.
func VerifyRequest(token string, config GuardConfig) (*GuardResult, *agentauth.Error) {
	minScore := config.MinScore
	if minScore == 0 {
		minScore = 0.7
	}

	verifier := NewVerifier(config.Secret)
	claims, err := verifier.Verify(token)
	if err != nil {
		return nil, err
	}

	avg := claims.Capabilities.Mean()
	if avg < minScore {
		return nil, agentauth.NewError(
			fmt.Sprintf("Insufficient capability score: %.2f < %g", avg, minScore),
			403, agentauth.ErrInsufficientScore,
		)
	}

	headers := map[string]string{
		HeaderStatus:       "verified",
		HeaderScore:        fmt.Sprintf("%.2f", avg),
		HeaderModelFamily:  claims.ModelFamily,
		HeaderCapabilities: FormatCapabilities(claims.Capabilities),
		HeaderVersion:      claims.AgentAuthVersion,
	}
	if len(claims.ChallengeIDs) > 0 {
		headers[HeaderChallengeID] = claims.ChallengeIDs[0]
	}
	headers[HeaderTokenExpires] = fmt.Sprintf("%d", claims.ExpiresAt.Unix())

	return &GuardResult{Claims: claims, Headers: headers}, nil
}
