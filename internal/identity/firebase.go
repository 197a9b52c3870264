package identity

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// FirebaseAuth is the subset of *auth.Client used here.
type FirebaseAuth interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

type FirebaseVerifier struct {
	client FirebaseAuth
}

// NewFirebaseVerifier initializes the Firebase Admin SDK from a service
// account file.
func NewFirebaseVerifier(ctx context.Context, credentialsPath string) (*FirebaseVerifier, error) {
	if credentialsPath == "" {
		return nil, errors.New("FIREBASE_CREDENTIALS_PATH is required")
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Auth client: %w", err)
	}
	return NewFirebaseVerifierFromClient(client), nil
}

func NewFirebaseVerifierFromClient(client FirebaseAuth) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	decoded, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	id := Identity{UserID: decoded.UID, Provider: "firebase"}
	id.Email = firstString(decoded.Claims, "email")
	id.DisplayName = firstString(decoded.Claims, "name")
	id.AvatarURL = firstString(decoded.Claims, "picture")

	if id.DisplayName == "" {
		// Tokens minted before the profile was filled in carry no name.
		if user, err := v.client.GetUser(ctx, decoded.UID); err == nil && user.UserInfo != nil {
			id.DisplayName = user.DisplayName
			if id.AvatarURL == "" {
				id.AvatarURL = user.PhotoURL
			}
			if id.Email == "" {
				id.Email = user.Email
			}
		}
	}
	return id, nil
}

// SignOut revokes every refresh token of the user.
func (v *FirebaseVerifier) SignOut(ctx context.Context, _ string, id Identity) error {
	if err := v.client.RevokeRefreshTokens(ctx, id.UserID); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	return nil
}
