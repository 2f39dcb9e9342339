package firebase

import (
	"context"
	"fmt"

	fbauth "firebase.google.com/go/v4/auth"

	"marketplace/internal/infrastructure/auth"
)

// FirebaseAuthClient verifies Firebase ID tokens. Users are matched by the token's email claim.
type FirebaseAuthClient struct {
	client *fbauth.Client
}

func NewFirebaseAuthClient(client *fbauth.Client) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client: client,
	}
}

func (f *FirebaseAuthClient) Verify(ctx context.Context, token string) (*auth.Identity, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	}

	email, _ := result.Claims["email"].(string)
	if email == "" {
		return nil, fmt.Errorf("%w: token has no email claim", auth.ErrInvalidToken)
	}

	return &auth.Identity{Email: email}, nil
}
