package http

import (
	"crypto/subtle"
	"net/http"

	"github.com/secmon-lab/checkerboard/pkg/utils/logging"
)

// basicAuthMiddleware checks HTTP basic credentials in constant time. An
// empty password disables access entirely rather than allowing anyone in.
func basicAuthMiddleware(username, password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || password == "" || !credentialsMatch(user, pass, username, password) {
				if ok {
					logging.From(r.Context()).Warn("Rejected basic auth credentials",
						"username", user,
						"remote", r.RemoteAddr)
				}
				w.Header().Set("WWW-Authenticate", `Basic realm="checkerboard"`)
				writeError(w, r, http.StatusUnauthorized, "authentication_error",
					"Username and/or password incorrect")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func credentialsMatch(user, pass, wantUser, wantPass string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(wantUser)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(wantPass)) == 1
	return userOK && passOK
}

// requireStarted answers 503 until the mirror has been loaded
func (s *Server) requireStarted(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.mapper.Started() {
			w.Header().Set("Retry-After", "10")
			writeError(w, r, http.StatusServiceUnavailable, "not_ready",
				"User mapping is still loading")
			return
		}
		next.ServeHTTP(w, r)
	})
}
