package identity

import (
	"context"
	"errors"
)

// ErrInvalidToken is returned for any bearer token that cannot be trusted.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the signed-in user as the rest of the service sees it.
type Identity struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Provider    string `json:"provider"`
}

// Provider verifies bearer tokens issued by an identity backend.
type Provider interface {
	Verify(ctx context.Context, token string) (Identity, error)
	SignOut(ctx context.Context, token string, id Identity) error
}
