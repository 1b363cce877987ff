package http

import (
	"net/http"

	"github.com/secmon-lab/relmap/pkg/usecase"
)

func searchUsersHandler(uc *usecase.DirectoryUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		users, err := uc.SearchUsers(ctx, principalFrom(ctx), r.URL.Query().Get("query"))
		if err != nil {
			writeError(ctx, w, err, "Failed to search users")
			return
		}
		writeJSON(ctx, w, http.StatusOK, toUserResponses(users))
	}
}

func channelsHandler(uc *usecase.DirectoryUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		channels, err := uc.Channels(ctx, principalFrom(ctx))
		if err != nil {
			writeError(ctx, w, err, "Failed to get channels")
			return
		}
		writeJSON(ctx, w, http.StatusOK, toChannelResponses(channels))
	}
}

func recentDMsHandler(uc *usecase.DirectoryUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		days, err := queryInt(r, "days")
		if err != nil {
			writeError(ctx, w, err, "Failed to get recent DMs")
			return
		}

		users, err := uc.RecentDMs(ctx, principalFrom(ctx), days)
		if err != nil {
			writeError(ctx, w, err, "Failed to get recent DMs")
			return
		}
		writeJSON(ctx, w, http.StatusOK, toUserResponses(users))
	}
}

func syncUserHandler(uc *usecase.DirectoryUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		user, err := uc.SyncUser(ctx, principalFrom(ctx))
		if err != nil {
			writeError(ctx, w, err, "Failed to sync user data")
			return
		}
		writeJSON(ctx, w, http.StatusOK, syncUserResponse{
			Message: "User data synced successfully",
			User:    toUserResponse(user),
		})
	}
}

func syncTeamHandler(uc *usecase.DirectoryUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		result, err := uc.SyncTeam(ctx, principalFrom(ctx).TeamID)
		if err != nil {
			writeError(ctx, w, err, "Failed to sync team data")
			return
		}
		writeJSON(ctx, w, http.StatusOK, toSyncTeamResponse(result))
	}
}
