package providers

import (
	"context"
	"fmt"
	"sync"
)

var _ AuthProvider = &StaticTokenProvider{}

// StaticTokenProvider maps bearer tokens to identities from a fixed
// table. Meant for development and tests, not production.
type StaticTokenProvider struct {
	lock   sync.RWMutex
	tokens map[string]string
}

func NewStaticTokenProvider(tokens map[string]string) *StaticTokenProvider {
	if tokens == nil {
		tokens = make(map[string]string)
	}
	return &StaticTokenProvider{
		tokens: tokens,
	}
}

// AddToken registers a token for an identity.
func (p *StaticTokenProvider) AddToken(token string, uid string) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.tokens[token] = uid
}

func (p *StaticTokenProvider) VerifyToken(ctx context.Context, idToken string) (*TokenClaims, error) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	uid, ok := p.tokens[idToken]
	if !ok {
		return nil, fmt.Errorf("unknown token")
	}

	return &TokenClaims{
		UID: uid,
	}, nil
}
