package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/secmon-lab/relmap/pkg/domain/model"
	"github.com/secmon-lab/relmap/pkg/domain/types"
	"github.com/secmon-lab/relmap/pkg/usecase"
)

type addRelationshipRequest struct {
	ContactID              string   `json:"contactId"`
	RelationshipType       string   `json:"relationshipType" validate:"omitempty,oneof=team_member direct_report manager colleague mentor mentee friend custom"`
	CustomRelationshipType string   `json:"customRelationshipType" validate:"max=50"`
	Notes                  string   `json:"notes" validate:"max=500"`
	Tags                   []string `json:"tags" validate:"omitempty,dive,max=50"`
}

type addTeamRequest struct {
	ChannelID        string `json:"channelId"`
	RelationshipType string `json:"relationshipType" validate:"omitempty,oneof=team_member direct_report manager colleague mentor mentee friend custom"`
}

type addRecentDMsRequest struct {
	Days int `json:"days" validate:"omitempty,min=1,max=365"`
}

type updateRelationshipRequest struct {
	RelationshipType       *string  `json:"relationshipType" validate:"omitempty,oneof=team_member direct_report manager colleague mentor mentee friend custom"`
	CustomRelationshipType *string  `json:"customRelationshipType" validate:"omitempty,max=50"`
	Notes                  *string  `json:"notes" validate:"omitempty,max=500"`
	Tags                   []string `json:"tags" validate:"omitempty,dive,max=50"`
}

func relationshipMapHandler(uc *usecase.RelationshipUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		p := principalFrom(ctx)

		rels, err := uc.Map(ctx, p)
		if err != nil {
			writeError(ctx, w, err, "Failed to get relationship map")
			return
		}

		resp := make([]*mapEntryResponse, 0, len(rels))
		for _, rel := range rels {
			resp = append(resp, toMapEntry(rel))
		}
		writeJSON(ctx, w, http.StatusOK, resp)
	}
}

func addRelationshipHandler(uc *usecase.RelationshipUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req addRelationshipRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(ctx, w, err, "Failed to add relationship")
			return
		}

		rel, err := uc.Add(ctx, principalFrom(ctx), usecase.AddInput{
			ContactID:  model.UserID(req.ContactID),
			Type:       types.RelationshipType(req.RelationshipType),
			CustomType: req.CustomRelationshipType,
			Notes:      req.Notes,
			Tags:       req.Tags,
		})
		if err != nil {
			writeError(ctx, w, err, "Failed to add relationship")
			return
		}
		writeJSON(ctx, w, http.StatusCreated, toRelationshipResponse(rel))
	}
}

func addTeamHandler(uc *usecase.RelationshipUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req addTeamRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(ctx, w, err, "Failed to add team members")
			return
		}

		result, err := uc.AddTeam(ctx, principalFrom(ctx), usecase.AddTeamInput{
			ChannelID: req.ChannelID,
			Type:      types.RelationshipType(req.RelationshipType),
		})
		if err != nil {
			writeError(ctx, w, err, "Failed to add team members")
			return
		}
		writeJSON(ctx, w, http.StatusOK, toBulkResponse(result))
	}
}

func addRecentDMsHandler(uc *usecase.RelationshipUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req addRecentDMsRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(ctx, w, err, "Failed to add recent DM contacts")
			return
		}

		result, err := uc.AddRecentDMs(ctx, principalFrom(ctx), req.Days)
		if err != nil {
			writeError(ctx, w, err, "Failed to add recent DM contacts")
			return
		}
		writeJSON(ctx, w, http.StatusOK, toBulkResponse(result))
	}
}

func updateRelationshipHandler(uc *usecase.RelationshipUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		contactID := model.UserID(chi.URLParam(r, "id"))

		var req updateRelationshipRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(ctx, w, err, "Failed to update relationship")
			return
		}

		input := usecase.UpdateInput{
			CustomType: req.CustomRelationshipType,
			Notes:      req.Notes,
			Tags:       req.Tags,
		}
		if req.RelationshipType != nil {
			t := types.RelationshipType(*req.RelationshipType)
			input.Type = &t
		}

		rel, err := uc.Update(ctx, principalFrom(ctx), contactID, input)
		if err != nil {
			writeError(ctx, w, err, "Failed to update relationship")
			return
		}
		writeJSON(ctx, w, http.StatusOK, toRelationshipResponse(rel))
	}
}

func deleteRelationshipHandler(uc *usecase.RelationshipUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		contactID := model.UserID(chi.URLParam(r, "id"))

		if err := uc.Delete(ctx, principalFrom(ctx), contactID); err != nil {
			writeError(ctx, w, err, "Failed to delete relationship")
			return
		}
		writeJSON(ctx, w, http.StatusOK, messageResponse{Message: "Relationship deleted successfully"})
	}
}

func contactHandler(uc *usecase.RelationshipUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		contactID := model.UserID(chi.URLParam(r, "id"))

		profile, err := uc.Contact(ctx, principalFrom(ctx), contactID)
		if err != nil {
			writeError(ctx, w, err, "Failed to get contact profile")
			return
		}
		writeJSON(ctx, w, http.StatusOK, toContactResponse(profile))
	}
}
