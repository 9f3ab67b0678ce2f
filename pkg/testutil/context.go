package testutil

import (
	"net/http"

	"grantapp/pkg/requestcontext"
)

// WithClient adds client metadata to the request context, as the client
// metadata middleware would.
func WithClient(req *http.Request, ip, userAgent string) *http.Request {
	return req.WithContext(requestcontext.WithClientMetadata(req.Context(), ip, userAgent))
}
