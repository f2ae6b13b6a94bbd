package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"motoinvest/internal/log"
	"motoinvest/internal/services"
)

var (
	ErrMissingToken = errors.New("missing or invalid token")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims are the parts of an auth provider access token we read. The layout
// follows Supabase: sub, email and user_metadata.
type Claims struct {
	jwt.RegisteredClaims
	Email        string `json:"email"`
	Role         string `json:"role,omitempty"`
	UserMetadata struct {
		Name     string `json:"name"`
		FullName string `json:"full_name"`
	} `json:"user_metadata"`
}

// Identity maps the claims to a session identity.
func (c *Claims) Identity() services.Identity {
	name := c.UserMetadata.Name
	if name == "" {
		name = c.UserMetadata.FullName
	}
	return services.Identity{UserID: c.Subject, Email: c.Email, Name: name}
}

// Authenticator verifies HS256 bearer tokens signed with a shared secret.
type Authenticator struct {
	secret []byte
	issuer string
	logger *log.Logger
}

func NewAuthenticator(secret, issuer string, logger *log.Logger) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer, logger: logger.WithComponent(log.ComponentAuth)}
}

// Verify parses and validates a raw token.
func (a *Authenticator) Verify(raw string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	return claims, nil
}

type identityKey struct{}

// Middleware rejects requests without a valid token with 401 and the
// verification error. The websocket route may pass the token as the
// access_token query parameter since browsers cannot set headers there.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := extractToken(r)
		if raw == "" {
			ErrorResponse(http.StatusUnauthorized, ErrMissingToken.Error()).Write(w)
			return
		}
		claims, err := a.Verify(raw)
		if err != nil {
			a.logger.WarnContext(r.Context(), "Token rejected", log.FieldPath, r.URL.Path, log.FieldError, err)
			ErrorResponse(http.StatusUnauthorized, "Unauthorized: "+err.Error()).Write(w)
			return
		}
		id := claims.Identity()
		logger := log.FromContext(r.Context()).With(log.FieldUserID, id.UserID)
		ctx := context.WithValue(r.Context(), identityKey{}, id)
		ctx = log.NewContext(ctx, logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IdentityFrom returns the identity stored by Middleware.
func IdentityFrom(ctx context.Context) (services.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(services.Identity)
	return id, ok
}

func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	if strings.HasPrefix(r.URL.Path, "/ws/") {
		return r.URL.Query().Get("access_token")
	}
	return ""
}
