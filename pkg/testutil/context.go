package testutil

import (
	"net/http"

	"rentmarket/pkg/requestcontext"
)

// WithIdentity marks req as authenticated, bypassing token verification.
func WithIdentity(req *http.Request, subjectID, email string) *http.Request {
	return req.WithContext(requestcontext.WithIdentity(req.Context(), subjectID, email))
}
