package testutil

import (
	"net/http"
	"time"

	id "campus/pkg/domain"
	"campus/pkg/requestcontext"
)

// AsUser simulates what the auth middleware does for a valid token.
// An unparsable userID leaves the request anonymous.
func AsUser(req *http.Request, userID string) *http.Request {
	parsed, err := id.ParseUserID(userID)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithUserID(req.Context(), parsed))
}

// WithRequestID simulates the request id middleware.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// At pins the request time, as the requesttime middleware would.
func At(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}
