// Package identity projects the caller's identity from headers set by the
// trusted gateway in front of the service.
package identity

import (
	"context"
	"net/http"
	"time"

	"popupforge/internal/popup"
	"popupforge/pkg/logger"
)

const (
	HeaderViewerID  = "X-Viewer-ID"
	HeaderRole      = "X-Viewer-Role"
	HeaderCreatedAt = "X-Viewer-Created-At" // RFC 3339
)

type ctxKey struct{}

// WithViewer stores v in ctx.
func WithViewer(ctx context.Context, v popup.Viewer) context.Context {
	return context.WithValue(ctx, ctxKey{}, v)
}

// FromContext returns the viewer stored in ctx.
func FromContext(ctx context.Context) (popup.Viewer, bool) {
	v, ok := ctx.Value(ctxKey{}).(popup.Viewer)
	return v, ok
}

// FromRequest parses the gateway headers. ok is false when no viewer id is
// present. A viewer without an account creation time is rejected: age
// targeting cannot be evaluated for it.
func FromRequest(r *http.Request) (v popup.Viewer, ok bool, err error) {
	v.ID = r.Header.Get(HeaderViewerID)
	if v.ID == "" {
		return v, false, nil
	}
	v.Role = r.Header.Get(HeaderRole)
	if v.Role == "" {
		v.Role = popup.RoleUser
	}
	raw := r.Header.Get(HeaderCreatedAt)
	if raw == "" {
		return v, false, popup.NewError(popup.ErrCodeInvalid, "missing "+HeaderCreatedAt)
	}
	v.AccountCreatedAt, err = time.Parse(time.RFC3339, raw)
	if err != nil {
		return v, false, popup.WrapError(popup.ErrCodeInvalid, "invalid "+HeaderCreatedAt, err)
	}
	return v, true, nil
}

// ErrorWriter renders a rejected request.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Middleware attaches the header viewer to the request context. Header
// errors are handed to onError.
func Middleware(next http.Handler, onError ErrorWriter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v, ok, err := FromRequest(r)
		if err != nil {
			onError(w, r, err)
			return
		}
		if ok {
			ctx := logger.ContextWithViewerID(WithViewer(r.Context(), v), v.ID)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// ContextProvider resolves viewers from the request context.
type ContextProvider struct{}

var _ popup.IdentityProvider = ContextProvider{}

func (ContextProvider) Viewer(ctx context.Context, id string) (popup.Viewer, error) {
	v, ok := FromContext(ctx)
	if !ok || v.ID != id || v.AccountCreatedAt.IsZero() {
		return popup.Viewer{}, popup.ErrViewerNotFound
	}
	return v, nil
}
