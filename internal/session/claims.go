package session

import (
	"github.com/jwalitptl/healthhub-client/pkg/auth"
	"github.com/jwalitptl/healthhub-client/pkg/errors"
)

// ParseClaims reads token claims without verifying the signature. The client
// has no key; the result is for display only.
func ParseClaims(token string) (*auth.Claims, error) {
	claims, err := auth.ParseUnverified(token)
	if err != nil {
		return nil, errors.Decode("malformed token", err)
	}
	return claims, nil
}
