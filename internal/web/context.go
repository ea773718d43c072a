package web

import (
	"context"
	"net/http"

	"github.com/equipsight/equipsight/internal/core"
)

// WithRequestMetadata adds client IP and User-Agent to the context for
// audit logging. RemoteAddr has already been normalized by TrustedRealIP.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, r.RemoteAddr)
	ctx = core.ContextWithUserAgent(ctx, r.Header.Get("User-Agent"))
	return ctx
}
