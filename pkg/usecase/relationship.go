package usecase

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/relmap/pkg/domain/interfaces"
	"github.com/secmon-lab/relmap/pkg/domain/model"
	"github.com/secmon-lab/relmap/pkg/domain/model/auth"
	"github.com/secmon-lab/relmap/pkg/domain/types"
	"github.com/secmon-lab/relmap/pkg/service/slack"
	"github.com/secmon-lab/relmap/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultRecentDays is the look-back window of recent DM imports
	DefaultRecentDays = 30
	// MaxRecentDays bounds the look-back window of recent DM imports
	MaxRecentDays = 365

	mapConcurrency = 8
)

// RelationshipUseCase handles relationship-related business logic
type RelationshipUseCase struct {
	repo      interfaces.Repository
	directory slack.Directory
	now       func() time.Time
}

func NewRelationshipUseCase(repo interfaces.Repository, directory slack.Directory, now func() time.Time) *RelationshipUseCase {
	return &RelationshipUseCase{
		repo:      repo,
		directory: directory,
		now:       now,
	}
}

// AddInput represents input for adding a single contact
type AddInput struct {
	ContactID  model.UserID
	Type       types.RelationshipType
	CustomType string
	Notes      string
	Tags       []string
}

// AddTeamInput represents input for importing the members of a channel
type AddTeamInput struct {
	ChannelID string
	Type      types.RelationshipType
}

// UpdateInput holds the editable fields of a relationship. Nil fields are left unchanged.
type UpdateInput struct {
	Type       *types.RelationshipType
	CustomType *string
	Notes      *string
	Tags       []string
}

// BulkError describes one item that failed during a bulk operation
type BulkError struct {
	ID    string
	Error string
}

// BulkResult is the outcome of a bulk import. Failed items never abort the batch.
type BulkResult struct {
	Added         int
	Skipped       int
	Relationships []*model.Relationship
	Errors        []BulkError
}

// ContactProfile is a contact with the caller's relationship to them
type ContactProfile struct {
	Contact          *model.User
	Relationship     *model.Relationship
	LastInteraction  *time.Time
	InteractionCount int
	SharedChannels   []model.SharedChannel
	SharedInterests  []string
}

func newBulkResult() *BulkResult {
	return &BulkResult{
		Relationships: []*model.Relationship{},
		Errors:        []BulkError{},
	}
}

func validateType(t types.RelationshipType) error {
	if t != "" && !t.IsValid() {
		return newValidationError("Invalid relationship type")
	}
	return nil
}

func validateText(customType, notes *string) error {
	if customType != nil && utf8.RuneCountInString(*customType) > model.MaxCustomTypeLength {
		return newValidationError("Custom relationship type must be at most 50 characters")
	}
	if notes != nil && utf8.RuneCountInString(*notes) > model.MaxNotesLength {
		return newValidationError("Notes must be at most 500 characters")
	}
	return nil
}

// Map returns the caller's active relationships enriched with the latest interaction
func (uc *RelationshipUseCase) Map(ctx context.Context, p *auth.Principal) ([]*model.RelationshipWithContact, error) {
	active := true
	rels, err := uc.repo.Relationship().FindRelationships(ctx, interfaces.RelationshipFilter{
		OwnerID: p.UserID,
		TeamID:  p.TeamID,
		Active:  &active,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find relationships", goerr.V(OwnerIDKey, p.UserID))
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(mapConcurrency)
	for _, rel := range rels {
		eg.Go(func() error {
			latest, err := uc.latestInteraction(ctx, p.UserID, rel.ContactID)
			if err != nil {
				return err
			}
			if latest != nil {
				rel.LastInteraction = latest
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return rels, nil
}

// latestInteraction returns the newest interaction timestamp for the pair, or nil
func (uc *RelationshipUseCase) latestInteraction(ctx context.Context, ownerID, contactID model.UserID) (*time.Time, error) {
	xs, err := uc.repo.Interaction().FindInteractions(ctx, interfaces.InteractionFilter{
		OwnerID:   ownerID,
		ContactID: contactID,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find interactions",
			goerr.V(OwnerIDKey, ownerID),
			goerr.V(ContactIDKey, contactID))
	}
	if len(xs) == 0 {
		return nil, nil
	}
	ts := xs[0].Timestamp
	return &ts, nil
}

// sharedChannels returns channels both users belong to. Directory failures
// degrade to no shared channels.
func (uc *RelationshipUseCase) sharedChannels(ctx context.Context, ownerID, contactID model.UserID) []model.SharedChannel {
	if uc.directory == nil {
		return []model.SharedChannel{}
	}

	ownerChannels, err := uc.directory.ListChannels(ctx, ownerID)
	if err != nil {
		logging.From(ctx).Warn("failed to list owner channels", "error", err, "user_id", ownerID)
		return []model.SharedChannel{}
	}
	contactChannels, err := uc.directory.ListChannels(ctx, contactID)
	if err != nil {
		logging.From(ctx).Warn("failed to list contact channels", "error", err, "user_id", contactID)
		return []model.SharedChannel{}
	}
	return model.SharedChannels(ownerChannels, contactChannels)
}

func (uc *RelationshipUseCase) findUser(ctx context.Context, id model.UserID) (*model.User, error) {
	user, err := uc.repo.User().FindUser(ctx, interfaces.UserQuery{ID: id})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find user", goerr.V("user_id", id))
	}
	return user, nil
}

func interestsOf(u *model.User) []string {
	if u == nil {
		return nil
	}
	return u.Profile.Interests
}

// create builds and stores a relationship from owner to contact. It returns
// ErrRelationshipExists if the pair is already active.
func (uc *RelationshipUseCase) create(ctx context.Context, owner *model.User, p *auth.Principal, contact *model.User, rel *model.Relationship) (*model.Relationship, error) {
	rel.SharedInterests = model.SharedInterests(interestsOf(owner), interestsOf(contact))
	rel.SharedChannels = uc.sharedChannels(ctx, p.UserID, contact.ID)

	if err := rel.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid relationship")
	}

	created, err := uc.repo.Relationship().CreateRelationship(ctx, rel)
	if err != nil {
		if errors.Is(err, interfaces.ErrDuplicateRelationship) {
			return nil, goerr.Wrap(ErrRelationshipExists, "relationship already exists",
				goerr.V(OwnerIDKey, p.UserID),
				goerr.V(ContactIDKey, contact.ID))
		}
		return nil, goerr.Wrap(err, "failed to create relationship",
			goerr.V(OwnerIDKey, p.UserID),
			goerr.V(ContactIDKey, contact.ID))
	}
	return created, nil
}

// Add creates a relationship to a single contact
func (uc *RelationshipUseCase) Add(ctx context.Context, p *auth.Principal, input AddInput) (*model.Relationship, error) {
	if input.ContactID == "" {
		return nil, newValidationError("Contact ID is required")
	}
	if err := validateType(input.Type); err != nil {
		return nil, err
	}
	if err := validateText(&input.CustomType, &input.Notes); err != nil {
		return nil, err
	}

	contact, err := uc.findUser(ctx, input.ContactID)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, goerr.Wrap(ErrContactNotFound, "contact not found", goerr.V(ContactIDKey, input.ContactID))
	}

	existing, err := uc.repo.Relationship().FindRelationship(ctx, p.UserID, input.ContactID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find relationship", goerr.V(ContactIDKey, input.ContactID))
	}
	if existing != nil {
		return nil, goerr.Wrap(ErrRelationshipExists, "relationship already exists",
			goerr.V(OwnerIDKey, p.UserID),
			goerr.V(ContactIDKey, input.ContactID))
	}

	owner, err := uc.findUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	rel := model.NewRelationship(p.UserID, p.TeamID, contact.ID, input.Type, types.AddedViaManual)
	rel.CustomType = input.CustomType
	rel.Notes = input.Notes
	if input.Tags != nil {
		rel.Tags = input.Tags
	}

	return uc.create(ctx, owner, p, contact, rel)
}

// candidate is a contact id offered to a bulk import
type candidate struct {
	contactID model.UserID
	build     func(contact *model.User) (*model.Relationship, error)
}

// importAll creates relationships for each candidate. The owner, unknown
// contacts and existing pairs are skipped. Per-item failures are collected.
func (uc *RelationshipUseCase) importAll(ctx context.Context, p *auth.Principal, candidates []candidate) (*BulkResult, error) {
	owner, err := uc.findUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	result := newBulkResult()
	for _, c := range candidates {
		if c.contactID == p.UserID {
			result.Skipped++
			continue
		}

		rel, err := uc.importOne(ctx, owner, p, c)
		switch {
		case errors.Is(err, ErrRelationshipExists), errors.Is(err, ErrContactNotFound):
			result.Skipped++
		case err != nil:
			logging.From(ctx).Warn("failed to import contact", "error", err, "contact_id", c.contactID)
			result.Errors = append(result.Errors, BulkError{ID: c.contactID.String(), Error: err.Error()})
		default:
			result.Added++
			result.Relationships = append(result.Relationships, rel)
		}
	}

	return result, nil
}

func (uc *RelationshipUseCase) importOne(ctx context.Context, owner *model.User, p *auth.Principal, c candidate) (*model.Relationship, error) {
	existing, err := uc.repo.Relationship().FindRelationship(ctx, p.UserID, c.contactID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find relationship", goerr.V(ContactIDKey, c.contactID))
	}
	if existing != nil {
		return nil, ErrRelationshipExists
	}

	contact, err := uc.findUser(ctx, c.contactID)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, ErrContactNotFound
	}

	rel, err := c.build(contact)
	if err != nil {
		return nil, err
	}
	return uc.create(ctx, owner, p, contact, rel)
}

// AddTeam imports the members of a channel
func (uc *RelationshipUseCase) AddTeam(ctx context.Context, p *auth.Principal, input AddTeamInput) (*BulkResult, error) {
	if input.ChannelID == "" {
		return nil, newValidationError("Channel ID is required")
	}
	if err := validateType(input.Type); err != nil {
		return nil, err
	}
	if uc.directory == nil {
		return nil, goerr.Wrap(ErrNotConfigured, "workspace directory is not configured")
	}

	relType := input.Type
	if relType == "" {
		relType = types.RelationshipTypeTeamMember
	}

	members, err := uc.directory.ChannelMembers(ctx, input.ChannelID)
	if err != nil {
		if errors.Is(err, slack.ErrChannelNotFound) {
			return nil, goerr.Wrap(ErrChannelNotFound, "channel not found", goerr.V(ChannelIDKey, input.ChannelID))
		}
		return nil, goerr.Wrap(ErrUpstream, "failed to get channel members",
			goerr.V(ChannelIDKey, input.ChannelID),
			goerr.V("error", err.Error()))
	}

	candidates := make([]candidate, 0, len(members))
	for _, id := range members {
		candidates = append(candidates, candidate{
			contactID: id,
			build: func(contact *model.User) (*model.Relationship, error) {
				rel := model.NewRelationship(p.UserID, p.TeamID, contact.ID, relType, types.AddedViaChannelMembers)
				rel.SourceChannel = input.ChannelID
				return rel, nil
			},
		})
	}

	return uc.importAll(ctx, p, candidates)
}

// validateDays applies the default and bounds of a look-back window
func validateDays(days int) (int, error) {
	if days == 0 {
		return DefaultRecentDays, nil
	}
	if days < 1 || days > MaxRecentDays {
		return 0, newValidationError("Days must be between 1 and 365")
	}
	return days, nil
}

// recentDMContacts returns distinct contacts of im interactions within days
func recentDMContacts(ctx context.Context, repo interfaces.Repository, ownerID model.UserID, since time.Time) ([]model.UserID, error) {
	values, err := repo.Interaction().DistinctInteractions(ctx, model.InteractionFieldContactID, interfaces.InteractionFilter{
		OwnerID:     ownerID,
		ChannelType: types.ChannelTypeIM,
		Since:       since,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find recent DM contacts", goerr.V(OwnerIDKey, ownerID))
	}

	ids := make([]model.UserID, 0, len(values))
	for _, v := range values {
		ids = append(ids, model.UserID(v))
	}
	return ids, nil
}

// AddRecentDMs imports contacts the caller exchanged direct messages with
func (uc *RelationshipUseCase) AddRecentDMs(ctx context.Context, p *auth.Principal, days int) (*BulkResult, error) {
	days, err := validateDays(days)
	if err != nil {
		return nil, err
	}

	since := uc.now().AddDate(0, 0, -days)
	ids, err := recentDMContacts(ctx, uc.repo, p.UserID, since)
	if err != nil {
		return nil, err
	}

	candidates := make([]candidate, 0, len(ids))
	for _, id := range ids {
		candidates = append(candidates, candidate{
			contactID: id,
			build: func(contact *model.User) (*model.Relationship, error) {
				rel := model.NewRelationship(p.UserID, p.TeamID, contact.ID, types.RelationshipTypeColleague, types.AddedViaRecentDMs)

				latest, err := uc.latestInteraction(ctx, p.UserID, contact.ID)
				if err != nil {
					return nil, err
				}
				rel.LastInteraction = latest

				count, err := uc.repo.Interaction().CountInteractions(ctx, interfaces.InteractionFilter{
					OwnerID:   p.UserID,
					ContactID: contact.ID,
				})
				if err != nil {
					return nil, goerr.Wrap(err, "failed to count interactions", goerr.V(ContactIDKey, contact.ID))
				}
				rel.InteractionCount = count
				return rel, nil
			},
		})
	}

	return uc.importAll(ctx, p, candidates)
}

// Update edits the caller's active relationship to contactID
func (uc *RelationshipUseCase) Update(ctx context.Context, p *auth.Principal, contactID model.UserID, input UpdateInput) (*model.Relationship, error) {
	if input.Type != nil {
		if err := validateType(*input.Type); err != nil {
			return nil, err
		}
	}
	if err := validateText(input.CustomType, input.Notes); err != nil {
		return nil, err
	}

	existing, err := uc.repo.Relationship().FindRelationship(ctx, p.UserID, contactID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find relationship", goerr.V(ContactIDKey, contactID))
	}
	if existing == nil {
		return nil, goerr.Wrap(ErrRelationshipNotFound, "relationship not found", goerr.V(ContactIDKey, contactID))
	}

	patch := model.RelationshipPatch{
		CustomType: input.CustomType,
		Notes:      input.Notes,
		Tags:       input.Tags,
	}
	if input.Type != nil && *input.Type != "" {
		patch.Type = input.Type
	}

	updated, err := uc.repo.Relationship().UpdateRelationship(ctx, p.UserID, contactID, patch)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update relationship", goerr.V(ContactIDKey, contactID))
	}
	if updated == nil {
		return nil, goerr.Wrap(ErrRelationshipNotFound, "relationship disappeared", goerr.V(ContactIDKey, contactID))
	}
	return updated, nil
}

// Delete deactivates the caller's active relationship to contactID
func (uc *RelationshipUseCase) Delete(ctx context.Context, p *auth.Principal, contactID model.UserID) error {
	existing, err := uc.repo.Relationship().FindRelationship(ctx, p.UserID, contactID)
	if err != nil {
		return goerr.Wrap(err, "failed to find relationship", goerr.V(ContactIDKey, contactID))
	}
	if existing == nil {
		return goerr.Wrap(ErrRelationshipNotFound, "relationship not found", goerr.V(ContactIDKey, contactID))
	}

	inactive := false
	if _, err := uc.repo.Relationship().UpdateRelationship(ctx, p.UserID, contactID, model.RelationshipPatch{Active: &inactive}); err != nil {
		return goerr.Wrap(err, "failed to deactivate relationship", goerr.V(ContactIDKey, contactID))
	}
	return nil
}

// Contact returns the profile of contactID with the caller's relationship to them
func (uc *RelationshipUseCase) Contact(ctx context.Context, p *auth.Principal, contactID model.UserID) (*ContactProfile, error) {
	contact, err := uc.findUser(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, goerr.Wrap(ErrContactNotFound, "contact not found", goerr.V(ContactIDKey, contactID))
	}

	profile := &ContactProfile{
		Contact:         contact,
		SharedChannels:  []model.SharedChannel{},
		SharedInterests: []string{},
	}

	rel, err := uc.repo.Relationship().FindRelationship(ctx, p.UserID, contactID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find relationship", goerr.V(ContactIDKey, contactID))
	}
	if rel != nil {
		profile.Relationship = rel.Relationship
		profile.SharedChannels = rel.SharedChannels
		profile.SharedInterests = rel.SharedInterests
	}

	if profile.LastInteraction, err = uc.latestInteraction(ctx, p.UserID, contactID); err != nil {
		return nil, err
	}
	if profile.LastInteraction == nil && rel != nil {
		profile.LastInteraction = rel.LastInteraction
	}

	profile.InteractionCount, err = uc.repo.Interaction().CountInteractions(ctx, interfaces.InteractionFilter{
		OwnerID:   p.UserID,
		ContactID: contactID,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count interactions", goerr.V(ContactIDKey, contactID))
	}

	return profile, nil
}
