package middleware

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"go.hackfix.me/scriptomate/web/server/api/util"
	"go.hackfix.me/scriptomate/web/server/types"
)

// maxBodySize limits the size of request bodies read for authentication.
const maxBodySize = 1 << 16

// Password authenticates requests with the shared service password. It's read
// from the "password" query parameter, or the "Password" field of a JSON
// request body, which is restored for the next handler. secret is either the
// bcrypt hash of the password, or the password itself.
//
// If this fails, a response with status 401 Unauthorized is returned. Otherwise
// the request is allowed to proceed.
func Password(secret string, logger *slog.Logger) Middleware {
	matches := passwordMatcher(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			password := r.URL.Query().Get("password")
			if r.Body != nil && r.Method == http.MethodPost {
				body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
				if err != nil {
					_ = util.WriteError(w, http.StatusBadRequest, "failed reading request body")
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))

				var req types.GetNextNumberRequest
				if json.Unmarshal(body, &req) == nil && req.Password != "" {
					password = req.Password
				}
			}

			if !matches(password) {
				logger.Warn("rejected request with invalid password", "remote_addr", r.RemoteAddr)
				_ = util.WriteError(w, http.StatusUnauthorized, types.InvalidPasswordMessage)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// passwordMatcher returns a function that reports whether a password matches
// secret.
func passwordMatcher(secret string) func(password string) bool {
	if _, err := bcrypt.Cost([]byte(secret)); err == nil {
		hash := []byte(secret)
		return func(password string) bool {
			return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
		}
	}

	return func(password string) bool {
		return subtle.ConstantTimeCompare([]byte(password), []byte(secret)) == 1
	}
}
