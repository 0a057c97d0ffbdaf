package auth

import (
	"crypto/subtle"
	"net/http"

	"go.uber.org/zap"
)

// EngineAuthenticator guards the write-back route used by the workflow engine.
// The engine presents a shared bearer token instead of a user identity.
type EngineAuthenticator struct {
	token []byte
}

func NewEngineAuthenticator(token string) *EngineAuthenticator {
	if token == "" {
		zap.S().Named("auth").Warn("engine token is not set: result write-backs are not authenticated")
	}
	return &EngineAuthenticator{token: []byte(token)}
}

func (e *EngineAuthenticator) Authenticate(token string) bool {
	if len(e.token) == 0 {
		return true
	}
	return subtle.ConstantTimeCompare(e.token, []byte(token)) == 1
}

func (e *EngineAuthenticator) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(e.token) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			http.Error(w, "No token provided", http.StatusUnauthorized)
			return
		}

		if !e.Authenticate(token) {
			http.Error(w, "authentication failed", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
