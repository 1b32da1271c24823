package httpx

import (
	"errors"
	"net/http"

	"github.com/EnzoTheBrown/bribe/internal/service/auth"
	"github.com/EnzoTheBrown/bribe/internal/service/user"
)

const (
	msgUnauthorized = "unauthorized"
	msgBadRequest   = "invalid request body"
	msgInternal     = "internal error"
)

// authFailure maps any authentication error onto the response the client
// sees. It is total: unknown errors become 401.
func authFailure(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrMalformedInput):
		return http.StatusBadRequest, msgBadRequest
	case errors.Is(err, auth.ErrTokenIssue):
		return http.StatusInternalServerError, msgInternal
	default:
		return http.StatusUnauthorized, msgUnauthorized
	}
}

func (r *Router) writeAuthFailure(w http.ResponseWriter, err error) {
	status, msg := authFailure(err)
	writeError(w, status, msg)
}

func userFailure(err error) (int, string) {
	switch {
	case errors.Is(err, user.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, user.ErrEmailTaken):
		return http.StatusConflict, "email already registered"
	case errors.Is(err, user.ErrNotFound):
		return http.StatusNotFound, "not found"
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func (r *Router) writeUserFailure(w http.ResponseWriter, req *http.Request, err error) {
	status, msg := userFailure(err)
	if status >= http.StatusInternalServerError {
		r.logger.ErrorContext(req.Context(), "user request failed", "error", err, "path", req.URL.Path)
	}
	writeError(w, status, msg)
}
