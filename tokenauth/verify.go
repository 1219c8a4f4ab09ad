package tokenauth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dyshay/agentauth"
)

// Verifier checks the signature, issuer, and expiration of capability
// tokens signed with the same secret.
type Verifier struct {
	secret []byte
}

// NewVerifier builds a Verifier over the given HMAC secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify checks a token's signature, issuer, and required claims,
// returning the claims on success. Failure modes are mapped to typed
// agentauth.Error values so callers can pick an HTTP status without
// inspecting the message string.
func (v *Verifier) Verify(tokenString string) (*Claims, *agentauth.Error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithIssuer(Issuer), jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired())

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, agentauth.NewError("Token has expired", 401, agentauth.ErrTokenExpired)
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return nil, agentauth.NewError("Invalid token issuer", 401, agentauth.ErrInvalidIssuer)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, agentauth.NewError("Invalid token signature", 401, agentauth.ErrInvalidSignature)
		default:
			return nil, agentauth.NewError(fmt.Sprintf("Invalid token: %v", err), 401, agentauth.ErrInvalidToken)
		}
	}

	if !token.Valid {
		return nil, agentauth.NewError("Invalid token", 401, agentauth.ErrInvalidToken)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, agentauth.NewError("Invalid token: missing required claims", 401, agentauth.ErrInvalidToken)
	}

	return claims, nil
}

// Decode parses a token's claims without verifying its signature or
// expiration. Used to inspect a token that may already be known-invalid.
func (v *Verifier) Decode(tokenString string) (*Claims, *agentauth.Error) {
	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))
	_, _, err := parser.ParseUnverified(tokenString, claims)
	if err != nil {
		return nil, agentauth.NewError(fmt.Sprintf("Failed to decode token: %v", err), 400, agentauth.ErrDecodeError)
	}
	return claims, nil
}
