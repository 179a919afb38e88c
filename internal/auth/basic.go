// Package auth implements the HTTP basic authentication gate in front of
// the thqm server, and prompting for a password on the terminal.
package auth

import (
	"net/http"

	"github.com/thqm-go/thqm/internal/logging"
)

// Realm is the basic auth realm sent in challenges.
const Realm = "thqm"

// Credentials is the login/password pair configured at startup.
type Credentials struct {
	Login    string
	Password string
}

// Enabled reports whether authentication should be enforced. Both a login
// and a password are required.
func (c Credentials) Enabled() bool {
	return c.Login != "" && c.Password != ""
}

// Matches compares the given pair against the credentials verbatim.
func (c Credentials) Matches(login, password string) bool {
	return login == c.Login && password == c.Password
}

// Authenticate checks the request's basic auth header against creds.
// When the request is rejected it writes a 401 challenge and returns false;
// otherwise it writes nothing and returns true.
func Authenticate(w http.ResponseWriter, r *http.Request, creds Credentials) bool {
	login, password, ok := r.BasicAuth()
	if !ok {
		logging.Debug("auth required", "path", r.URL.Path)
		challenge(w)
		return false
	}

	logging.Debug("handling auth", "login", login)
	if !creds.Matches(login, password) {
		logging.Info("auth rejected", "login", login, "remote", r.RemoteAddr)
		challenge(w)
		return false
	}
	return true
}

// Middleware returns a middleware enforcing creds on every request. It is a
// pass-through when creds are not enabled.
func Middleware(creds Credentials) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !creds.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !Authenticate(w, r, creds) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func challenge(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="`+Realm+`"`)
	w.WriteHeader(http.StatusUnauthorized)
}
