package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/studio-labs/assessor/internal/auth"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("engine and none authentication", func() {
	serve := func(h http.Handler, headers map[string]string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/", nil)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	Context("engine token", func() {
		It("accepts the configured token", func() {
			a := auth.NewEngineAuthenticator("s3cret")
			rec := serve(a.Authenticator(&handler{}), map[string]string{"Authorization": "Bearer s3cret"})
			Expect(rec.Code).To(Equal(http.StatusOK))
		})

		It("rejects a wrong token", func() {
			a := auth.NewEngineAuthenticator("s3cret")
			rec := serve(a.Authenticator(&handler{}), map[string]string{"Authorization": "Bearer nope"})
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})

		It("rejects a missing token", func() {
			a := auth.NewEngineAuthenticator("s3cret")
			rec := serve(a.Authenticator(&handler{}), nil)
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})

		It("lets everything through when no token is configured", func() {
			a := auth.NewEngineAuthenticator("")
			Expect(a.Authenticate("anything")).To(BeTrue())
			rec := serve(a.Authenticator(&handler{}), nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
		})
	})

	Context("none authenticator", func() {
		It("defaults to the admin user", func() {
			a, err := auth.NewNoneAuthenticator()
			Expect(err).To(BeNil())

			h := &handler{}
			serve(a.Authenticator(h), nil)
			Expect(h.user.Username).To(Equal(auth.DefaultUser))
		})

		It("uses the user header", func() {
			a, err := auth.NewNoneAuthenticator()
			Expect(err).To(BeNil())

			h := &handler{}
			serve(a.Authenticator(h), map[string]string{auth.UserHeader: "alice"})
			Expect(h.user.Username).To(Equal("alice"))
			Expect(auth.MustHaveUser(auth.NewUserContext(context.Background(), h.user)).Username).To(Equal("alice"))
		})
	})
})
