// internal/handlers/utils.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/jason-s-yu/bomber/internal/game"
	"github.com/sirupsen/logrus"
)

// authCookieName is the cookie set by the login handler.
const authCookieName = "auth_token"

// errorResponse is the body of every failed request and every rejected intent.
type errorResponse struct {
	ErrorCode    game.ErrorCode `json:"errorCode"`
	ErrorMessage string         `json:"errorMessage"`
}

func newErrorResponse(err error) errorResponse {
	return errorResponse{ErrorCode: game.CodeOf(err), ErrorMessage: game.PublicMessage(err)}
}

// statusFor maps an error code to its HTTP status.
func statusFor(code game.ErrorCode) int {
	switch code {
	case game.CodeInvalidInput:
		return http.StatusBadRequest
	case game.CodeUnauthorized:
		return http.StatusUnauthorized
	case game.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError reports err to the client. Server errors are logged with their
// detail and sent with the generic message only.
func writeError(w http.ResponseWriter, r *http.Request, logger logrus.FieldLogger, err error) {
	resp := newErrorResponse(err)
	if resp.ErrorCode == game.CodeServerError {
		logger.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Errorf("Request failed: %v", err)
	}
	writeJSON(w, statusFor(resp.ErrorCode), resp)
}

// decodeJSON reads the request body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return game.InvalidInput("invalid request payload")
	}
	return nil
}

// requestToken returns the caller's token: an explicit value first, then a
// bearer Authorization header, then the auth cookie.
func requestToken(r *http.Request, explicit string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return extractCookieToken(r.Header.Get("Cookie"), authCookieName)
}

// extractCookieToken extracts a named cookie value from "Cookie" header, or returns empty if not found.
func extractCookieToken(cookieHeader, cookieName string) string {
	for _, part := range strings.Split(cookieHeader, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok && name == cookieName {
			return value
		}
	}
	return ""
}
