package auth

import (
	"net/http"
)

const (
	// UserHeader lets callers pick their identity when authentication is disabled.
	UserHeader  = "X-Assessor-User"
	DefaultUser = "admin"
)

type NoneAuthenticator struct{}

func NewNoneAuthenticator() (*NoneAuthenticator, error) {
	return &NoneAuthenticator{}, nil
}

func (n *NoneAuthenticator) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := r.Header.Get(UserHeader)
		if username == "" {
			username = DefaultUser
		}

		ctx := NewUserContext(r.Context(), User{Username: username})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
