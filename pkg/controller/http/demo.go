package http

import (
	"net/http"

	"github.com/secmon-lab/relmap/pkg/usecase"
)

func demoLoginHandler(uc *usecase.DemoUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		result, err := uc.Login(ctx)
		if err != nil {
			writeError(ctx, w, err, "Demo login failed")
			return
		}
		writeJSON(ctx, w, http.StatusOK, toLoginResponse(result))
	}
}

func demoResetHandler(uc *usecase.DemoUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		result, err := uc.Reset(ctx)
		if err != nil {
			writeError(ctx, w, err, "Demo reset failed")
			return
		}
		writeJSON(ctx, w, http.StatusOK, resetResponse{
			Message:       "Demo data reset successfully",
			Users:         result.Users,
			Relationships: result.Relationships,
			Interactions:  result.Interactions,
		})
	}
}

func demoUserHandler(uc *usecase.DemoUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		user, err := uc.User(ctx)
		if err != nil {
			writeError(ctx, w, err, "Failed to get demo user info")
			return
		}
		writeJSON(ctx, w, http.StatusOK, toUserResponse(user))
	}
}
