package identity

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/supabase-community/supabase-go"
)

// SupabaseVerifier checks HS256 access tokens signed with the project's JWT
// secret.
type SupabaseVerifier struct {
	secret []byte
	client *supabase.Client
}

// NewSupabaseVerifier returns a verifier for secret. client is used for
// sign-out and may be nil.
func NewSupabaseVerifier(secret string, client *supabase.Client) (*SupabaseVerifier, error) {
	if secret == "" {
		return nil, errors.New("supabase jwt secret is required")
	}
	return &SupabaseVerifier{secret: []byte(secret), client: client}, nil
}

func (v *SupabaseVerifier) Verify(_ context.Context, tokenString string) (Identity, error) {
	// Some clients URL-encode the token.
	if decoded, err := url.QueryUnescape(tokenString); err == nil {
		tokenString = decoded
	}
	if len(strings.Split(tokenString, ".")) != 3 {
		return Identity{}, fmt.Errorf("%w: token must have 3 parts separated by dots", ErrInvalidToken)
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Identity{}, fmt.Errorf("%w: token has expired", ErrInvalidToken)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Identity{}, fmt.Errorf("%w: token signature is invalid", ErrInvalidToken)
		default:
			return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Identity{}, fmt.Errorf("%w: missing user id in token", ErrInvalidToken)
	}

	id := Identity{UserID: sub, Provider: "supabase"}
	id.Email, _ = claims["email"].(string)
	if meta, ok := claims["user_metadata"].(map[string]interface{}); ok {
		id.DisplayName = firstString(meta, "full_name", "name")
		id.AvatarURL = firstString(meta, "avatar_url", "picture")
	}
	return id, nil
}

// SignOut revokes the session behind token on the Supabase side.
func (v *SupabaseVerifier) SignOut(_ context.Context, token string, _ Identity) error {
	if v.client == nil {
		return nil
	}
	if err := v.client.Auth.WithToken(token).Logout(); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
