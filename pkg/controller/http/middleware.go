package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/relmap/pkg/domain/model/auth"
	"github.com/secmon-lab/relmap/pkg/usecase"
	"github.com/secmon-lab/relmap/pkg/utils/logging"
)

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
				"remote", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// bearerToken extracts the token of an "Authorization: Bearer" header
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// authMiddleware resolves the bearer token to a principal and stores it in
// the request context
func authMiddleware(authUC *usecase.AuthUseCase) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			p, err := authUC.Verify(ctx, bearerToken(r))
			if err != nil {
				writeError(ctx, w, err, "Authentication failed")
				return
			}

			ctx = auth.ContextWithPrincipal(ctx, p)
			ctx = logging.With(ctx, logging.From(ctx).With("user_id", p.UserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// principalFrom returns the caller set by authMiddleware. Handlers behind
// the middleware always have one.
func principalFrom(ctx context.Context) *auth.Principal {
	if p := auth.PrincipalFromContext(ctx); p != nil {
		return p
	}
	return &auth.Principal{}
}
