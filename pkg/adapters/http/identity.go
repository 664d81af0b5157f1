package http

import (
	"net/http"

	"github.com/aretw0/vanity/pkg/identity"
)

// IdentityHeader and IdentityCookie carry the caller identity.
const (
	IdentityHeader = "X-Vanity-Identity"
	IdentityCookie = "vanity_id"
)

// IdentityMiddleware scopes each request to an identity taken from the
// X-Vanity-Identity header, then the vanity_id cookie. Requests carrying
// neither get a fresh anonymous identity, returned in the cookie.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id identity.ID
		if h := r.Header.Get(IdentityHeader); h != "" {
			id = identity.ID(h)
		} else if c, err := r.Cookie(IdentityCookie); err == nil && c.Value != "" {
			id = identity.ID(c.Value)
		} else {
			id = identity.Anonymous()
			http.SetCookie(w, &http.Cookie{
				Name:     IdentityCookie,
				Value:    string(id),
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(identity.WithIdentity(r.Context(), id)))
	})
}
