package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"studio-service/internal/models"

	"github.com/coreos/go-oidc/v3/oidc"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller, carried explicitly in the request
// context rather than read from globals.
type Identity struct {
	UserID string
	Email  string
	Role   models.Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// ProfileStore resolves the caller's role row and keeps the profile mirror of
// the identity provider's user record current.
type ProfileStore interface {
	GetRole(ctx context.Context, userID string) (models.Role, error)
	UpsertProfile(ctx context.Context, profile models.Profile) error
}

// Authenticator verifies bearer tokens against the OIDC issuer and resolves
// them into an Identity.
type Authenticator struct {
	verifier *oidc.IDTokenVerifier
	profiles ProfileStore
}

func New(issuer string, profiles ProfileStore) *Authenticator {
	if issuer == "" {
		panic("OIDC_ISSUER env var not set")
	}

	provider, err := oidc.NewProvider(context.Background(), issuer)
	if err != nil {
		panic(fmt.Sprintf("Failed to create OIDC provider: %v", err))
	}

	return &Authenticator{
		verifier: provider.Verifier(&oidc.Config{SkipClientIDCheck: true}),
		profiles: profiles,
	}
}

// Require rejects requests without a valid bearer token.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := a.identify(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// Optional attaches an Identity when a valid bearer token is present and lets
// the request through anonymously otherwise. Public forms use this so a
// signed-in client's submissions are linked to their account while guests
// stay unauthenticated.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}
		identity, err := a.identify(r)
		if err != nil {
			// A stale token must not block a public form.
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

func (a *Authenticator) identify(r *http.Request) (Identity, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return Identity{}, fmt.Errorf("missing Authorization header")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return Identity{}, fmt.Errorf("invalid Authorization header format")
	}

	idToken, err := a.verifier.Verify(r.Context(), parts[1])
	if err != nil {
		return Identity{}, fmt.Errorf("invalid token: %v", err)
	}

	var claims struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return Identity{}, fmt.Errorf("failed to parse claims")
	}

	return resolveIdentity(r.Context(), a.profiles, claims.Sub, claims.Email, claims.Name), nil
}

// resolveIdentity looks up the caller's role and refreshes their profile row.
// Profile bookkeeping is best-effort: a failed upsert never blocks the
// request, and an absent role row defaults to client.
func resolveIdentity(ctx context.Context, profiles ProfileStore, sub, email, name string) Identity {
	identity := Identity{UserID: sub, Email: email, Role: models.RoleClient}
	if profiles == nil {
		return identity
	}

	_ = profiles.UpsertProfile(ctx, models.Profile{
		ID:       sub,
		Email:    email,
		FullName: name,
		JoinedAt: time.Now(),
	})

	if role, err := profiles.GetRole(ctx, sub); err == nil {
		identity.Role = role
	}
	return identity
}

// RequireAdmin rejects callers whose role row is not admin.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := From(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !identity.IsAdmin() {
			http.Error(w, "admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithIdentity returns a context carrying the caller identity.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// From extracts the caller identity placed by the middleware.
func From(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}
