// Package auth verifies the identity tokens clients present when opening a
// live interview session.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/workos/workos-go/v6/pkg/usermanagement"

	"github.com/vango-go/vai-interview/pkg/core"
)

// Identity is a verified caller.
type Identity struct {
	UserID string
	Email  string
}

// Verifier checks a raw bearer token and resolves the caller's identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// WorkOSVerifier confirms tokens against the WorkOS user directory. The token
// is parsed without local signature verification; trust comes from the user
// lookup performed with the server-side WorkOS API key.
type WorkOSVerifier struct {
	client *usermanagement.Client
	logger *slog.Logger
}

// NewWorkOS builds a verifier backed by the WorkOS User Management API.
func NewWorkOS(apiKey string, logger *slog.Logger) *WorkOSVerifier {
	return &WorkOSVerifier{
		client: usermanagement.NewClient(apiKey),
		logger: logger,
	}
}

// Verify extracts the subject claim from the token and confirms the user
// exists in WorkOS.
func (v *WorkOSVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, core.NewAuthenticationError("missing identity token")
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Identity{}, core.NewAuthenticationError(fmt.Sprintf("malformed identity token: %v", err))
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Identity{}, core.NewAuthenticationError("identity token has no subject")
	}

	user, err := v.client.GetUser(ctx, usermanagement.GetUserOpts{User: sub})
	if err != nil {
		v.logger.Warn("workos user lookup failed", "subject", sub, "error", err)
		return Identity{}, core.NewAuthenticationError("identity could not be confirmed")
	}

	return Identity{UserID: user.ID, Email: user.Email}, nil
}

// StaticVerifier accepts a fixed set of tokens. Intended for local development
// and tests, where no identity provider is reachable.
type StaticVerifier struct {
	identities map[string]Identity
}

// NewStatic maps each token to a synthetic identity derived from the token
// itself.
func NewStatic(tokens []string) *StaticVerifier {
	identities := make(map[string]Identity, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		identities[token] = Identity{UserID: "dev:" + token}
	}
	return &StaticVerifier{identities: identities}
}

func (v *StaticVerifier) Verify(_ context.Context, token string) (Identity, error) {
	if id, ok := v.identities[strings.TrimSpace(token)]; ok {
		return id, nil
	}
	return Identity{}, core.NewAuthenticationError("unknown identity token")
}
