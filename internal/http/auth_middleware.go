package httpx

import (
	"errors"
	"net/http"

	"github.com/EnzoTheBrown/bribe/internal/service/auth"
)

// authedHandler receives the identity admitted for this request.
type authedHandler func(http.ResponseWriter, *http.Request, auth.Identity)

// requireAuth admits the request through the auth gate before invoking the
// handler. Rejected requests never reach next.
func (r *Router) requireAuth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ident, err := r.auth.Admit(req.Context(), req.Header.Get("Authorization"))
		if err != nil {
			r.rejected(req, "gate", err)
			w.Header().Set("WWW-Authenticate", "Bearer")
			r.writeAuthFailure(w, err)
			return
		}
		if s, ok := w.(actorSetter); ok {
			s.SetActor(ident.UserID())
		}
		next(w, req, ident)
	}
}

// rejected logs the precise failure reason and counts it. The client never
// sees the reason.
func (r *Router) rejected(req *http.Request, stage string, err error) {
	reason := auth.Reason(err)
	r.metrics.recordAuthRejection(stage, reason)
	fields := []any{"stage", stage, "reason", reason, "error", err, "path", req.URL.Path}
	if errors.Is(err, auth.ErrStorageFailure) || errors.Is(err, auth.ErrHashingFailure) || errors.Is(err, auth.ErrTokenIssue) {
		r.logger.ErrorContext(req.Context(), "authentication failed", fields...)
		return
	}
	r.logger.WarnContext(req.Context(), "authentication rejected", fields...)
}
