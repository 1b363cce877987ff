package http

import (
	"net/http"

	"github.com/secmon-lab/relmap/pkg/usecase"
)

type callbackRequest struct {
	Code string `json:"code"`
}

// authCallbackHandler completes the OAuth flow. The code is read from the
// query string or from a JSON body.
func authCallbackHandler(authUC *usecase.AuthUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		code := r.URL.Query().Get("code")
		if code == "" && r.Method == http.MethodPost {
			var req callbackRequest
			if err := decodeJSON(r, &req); err != nil {
				writeError(ctx, w, err, "Authentication failed")
				return
			}
			code = req.Code
		}

		result, err := authUC.Callback(ctx, code)
		if err != nil {
			writeError(ctx, w, err, "Authentication failed")
			return
		}
		writeJSON(ctx, w, http.StatusOK, toLoginResponse(result))
	}
}

// authMeHandler returns current user information
func authMeHandler(authUC *usecase.AuthUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		user, err := authUC.Me(ctx, principalFrom(ctx))
		if err != nil {
			writeError(ctx, w, err, "Failed to get user info")
			return
		}
		writeJSON(ctx, w, http.StatusOK, toUserResponse(user))
	}
}

func authRefreshHandler(authUC *usecase.AuthUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		result, err := authUC.Refresh(ctx, principalFrom(ctx))
		if err != nil {
			writeError(ctx, w, err, "Failed to refresh token")
			return
		}
		writeJSON(ctx, w, http.StatusOK, loginResponse{
			Token:     result.Token,
			ExpiresAt: result.ExpiresAt,
		})
	}
}

// authLogoutHandler acknowledges logout. Tokens are stateless, so the
// client discards its copy.
func authLogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, http.StatusOK, messageResponse{Message: "Logged out successfully"})
	}
}
