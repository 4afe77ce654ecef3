package providers

import "context"

type AuthProvider interface {
	VerifyToken(ctx context.Context, idToken string) (*TokenClaims, error)
}

// TokenClaims carries the verified caller identity. UID is the
// participant identity used by the escrow core.
type TokenClaims struct {
	UID string `json:"uid"`
}
