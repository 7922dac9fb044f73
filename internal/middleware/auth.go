package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"motico-catalog/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type (
	principalKey     struct{}
	principalSlotKey struct{}
)

// Principal is the authenticated caller of a request
type Principal struct {
	UserID string
	Role   string
}

// Claims are the token claims the catalog reads. user_id wins over the
// registered subject when both are present.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) principal() (Principal, error) {
	userID := c.UserID
	if userID == "" {
		userID = c.Subject
	}
	if userID == "" || c.Role == "" {
		return Principal{}, errors.New("token carries no user or role")
	}
	return Principal{UserID: userID, Role: c.Role}, nil
}

var (
	errMissingHeader   = errors.New("missing authorization header")
	errMalformedHeader = errors.New("invalid authorization header format")
)

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errMissingHeader
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" || strings.ContainsAny(token, " \t") {
		return "", errMalformedHeader
	}
	return token, nil
}

// AuthMiddleware verifies an HMAC-signed bearer token with an expiry and
// puts its Principal on the request. An empty secret rejects every token.
func AuthMiddleware(jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
	)
	keyFunc := func(*jwt.Token) (interface{}, error) {
		if jwtSecret == "" {
			return nil, jwt.ErrInvalidKey
		}
		return []byte(jwtSecret), nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := bearerToken(r.Header.Get("Authorization"))
			if err != nil {
				logger.Debug("Rejected authorization header", zap.Error(err))
				RespondWithError(w, http.StatusUnauthorized, err.Error())
				return
			}

			claims := &Claims{}
			if _, err := parser.ParseWithClaims(raw, claims, keyFunc); err != nil {
				logger.Debug("Token validation failed", zap.Error(err))
				message := "invalid token"
				if errors.Is(err, jwt.ErrTokenExpired) {
					message = "token expired"
				}
				RespondWithError(w, http.StatusUnauthorized, message)
				return
			}

			principal, err := claims.principal()
			if err != nil {
				logger.Warn("Token accepted without identity claims", zap.Error(err))
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			// report the caller to the request logger sitting outside this handler
			if slot, ok := r.Context().Value(principalSlotKey{}).(*Principal); ok {
				*slot = principal
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// WithPrincipal returns ctx carrying p
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the caller AuthMiddleware authenticated
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// ActorFromContext names the user recorded on inventory log rows.
// Unauthenticated calls are attributed to the system user.
func ActorFromContext(ctx context.Context) string {
	if p, ok := PrincipalFromContext(ctx); ok && p.UserID != "" {
		return p.UserID
	}
	return domain.SystemUser
}
