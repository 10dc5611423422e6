package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pkordes/office-listings/backend/internal/domain"
)

// Claims is the payload of an access token: the subject is the user id and
// abilities lists the capabilities the token was issued with.
type Claims struct {
	Abilities []string `json:"abilities"`
	jwt.RegisteredClaims
}

type identityKey struct{}

// IdentityFrom returns the caller resolved by NewAuthenticator, or the
// anonymous identity when the request carried no token.
func IdentityFrom(ctx context.Context) domain.Identity {
	id, _ := ctx.Value(identityKey{}).(domain.Identity)
	return id
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// NewAuthenticator returns a middleware that resolves the Bearer token into
// a domain.Identity stored in the request context. Requests without an
// Authorization header continue as anonymous; a present but invalid token
// is rejected with 401.
func NewAuthenticator(secret []byte) func(http.Handler) http.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	keyFunc := func(*jwt.Token) (any, error) { return secret, nil }

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				writeUnauthenticated(w, "authorization header must use the Bearer scheme")
				return
			}

			var claims Claims
			if _, err := parser.ParseWithClaims(raw, &claims, keyFunc); err != nil {
				writeUnauthenticated(w, "invalid or expired token")
				return
			}
			id, err := identityFromClaims(claims)
			if err != nil {
				writeUnauthenticated(w, err.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func identityFromClaims(c Claims) (domain.Identity, error) {
	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return domain.Identity{}, errors.New("token subject is not a user id")
	}
	return domain.Identity{UserID: userID, Capabilities: c.Abilities}, nil
}

func writeUnauthenticated(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": "unauthenticated", "message": message},
	})
}
