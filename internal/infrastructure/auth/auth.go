package auth

import (
	"context"
	"errors"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is what a verified bearer token says about its holder.
// Either UserID or Email is set, depending on the issuer.
type Identity struct {
	UserID string
	Email  string
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

type chain []TokenVerifier

// Chain tries each verifier in order and returns the first identity found.
func Chain(verifiers ...TokenVerifier) TokenVerifier {
	return chain(verifiers)
}

func (c chain) Verify(ctx context.Context, token string) (*Identity, error) {
	for _, v := range c {
		if identity, err := v.Verify(ctx, token); err == nil {
			return identity, nil
		}
	}
	return nil, ErrInvalidToken
}
