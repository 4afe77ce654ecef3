package providers

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/auth"
	"google.golang.org/api/option"
)

var _ AuthProvider = &FirebaseAuthProvider{}

// FirebaseAuthProvider verifies Firebase ID tokens. The Firebase UID
// doubles as the participant identity stored on game records, so an
// account maps to exactly one escrow identity.
type FirebaseAuthProvider struct {
	app  *firebase.App
	auth *auth.Client
}

func NewFirebaseAuthProvider(ctx context.Context, projectID string, apiKey string) (*FirebaseAuthProvider, error) {
	opt := option.WithAPIKey(apiKey)
	cfg := &firebase.Config{
		ProjectID: projectID,
	}
	app, err := firebase.NewApp(ctx, cfg, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing app: %v", err)
	}

	auth, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Auth client: %v", err)
	}

	return &FirebaseAuthProvider{
		app:  app,
		auth: auth,
	}, nil
}

// VerifyToken verifies a Firebase ID token and returns the caller's
// escrow identity.
func (p *FirebaseAuthProvider) VerifyToken(ctx context.Context, idToken string) (*TokenClaims, error) {
	token, err := p.auth.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("error verifying token: %v", err)
	}

	return &TokenClaims{
		UID: token.UID,
	}, nil
}
