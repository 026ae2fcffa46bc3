package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"cashcast/internal/log"
)

type userKey struct{}

// HeaderUserID selects the user when authentication is disabled.
const HeaderUserID = "X-User-ID"

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid bearer token")
)

// Authenticator resolves the calling user. With a secret it requires an
// HS256 bearer token whose subject is the numeric user id. Without one every
// request runs as the X-User-ID header user or the default user.
type Authenticator struct {
	secret        []byte
	defaultUserID int64
	now           func() time.Time
}

// NewAuthenticator returns an Authenticator. An empty secret disables token
// checks.
func NewAuthenticator(secret string, defaultUserID int64) *Authenticator {
	return &Authenticator{
		secret:        []byte(secret),
		defaultUserID: defaultUserID,
		now:           time.Now,
	}
}

// Enabled reports whether bearer tokens are required.
func (a *Authenticator) Enabled() bool {
	return len(a.secret) > 0
}

// Authenticate returns the user id for r.
func (a *Authenticator) Authenticate(r *http.Request) (int64, error) {
	if !a.Enabled() {
		if v := strings.TrimSpace(r.Header.Get(HeaderUserID)); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil || id <= 0 {
				return 0, fmt.Errorf("%w: %s must be a positive integer", ErrInvalidToken, HeaderUserID)
			}
			return id, nil
		}
		return a.defaultUserID, nil
	}

	scheme, raw, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
		return 0, ErrMissingToken
	}
	return a.parse(strings.TrimSpace(raw))
}

func (a *Authenticator) parse(raw string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: subject must be a positive user id", ErrInvalidToken)
	}
	return id, nil
}

// SignToken issues an HS256 token for userID expiring at expiresAt.
func SignToken(secret string, userID int64, issuedAt, expiresAt time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("empty signing secret")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	return token.SignedString([]byte(secret))
}

// requireUser rejects unauthenticated requests with 401 and stores the user
// id in the request context.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.auth.Authenticate(r)
		if err != nil {
			atomic.AddInt64(&s.metrics.authFailures, 1)
			log.FromContext(r.Context()).WarnContext(r.Context(), "Authentication failed",
				log.FieldClientIP, extractClientIP(r),
				log.FieldError, err.Error())
			UnauthorizedError(err.Error()).Write(w)
			return
		}

		ctx := context.WithValue(r.Context(), userKey{}, userID)
		ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldUserID, userID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserIDFromContext returns the authenticated user id.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userKey{}).(int64)
	return id, ok
}
