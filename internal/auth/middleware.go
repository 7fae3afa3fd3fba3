package auth

import (
	"fmt"
	"log"
	"net/http"
	"strings"
)

// Middleware checks bearer tokens on report API routes.
type Middleware struct {
	secret []byte
	policy Policy
	logger *log.Logger
}

// NewMiddleware constructs the middleware. A nil logger disables denial logs.
func NewMiddleware(secret []byte, policy Policy, logger *log.Logger) *Middleware {
	return &Middleware{secret: secret, policy: policy, logger: logger}
}

// Wrap rejects requests without a valid token (401) or with a role below
// the route's requirement (403), and stores the caller Identity otherwise.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.policy.IsExempt(r) {
			next.ServeHTTP(w, r)
			return
		}
		required, ok := m.policy.RequiredRole(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		id, err := m.authenticate(r)
		if err != nil {
			m.deny(r, err)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !id.Role.Allows(required) {
			m.deny(r, fmt.Errorf("subject %s: role %s below %s", id.Subject, id.Role, required))
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func (m *Middleware) authenticate(r *http.Request) (Identity, error) {
	claims, err := ParseJWT(bearerToken(r), m.secret)
	if err != nil {
		return Identity{}, err
	}
	role, _ := ParseRole(claims.Role)
	return Identity{Subject: claims.Subject, Role: role}, nil
}

func (m *Middleware) deny(r *http.Request, err error) {
	if m.logger != nil {
		m.logger.Printf("auth denied: %s %s: %v", r.Method, r.URL.Path, err)
	}
}

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
