package usecase

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/relmap/pkg/domain/interfaces"
	"github.com/secmon-lab/relmap/pkg/domain/model"
	"github.com/secmon-lab/relmap/pkg/domain/types"
	"github.com/secmon-lab/relmap/pkg/service/slack"
	"github.com/secmon-lab/relmap/pkg/utils/errutil"
	"github.com/secmon-lab/relmap/pkg/utils/logging"
	"github.com/slack-go/slack/slackevents"
)

// IngestUseCase records direct message activity as interactions
type IngestUseCase struct {
	repo      interfaces.Repository
	directory slack.Directory
	now       func() time.Time
}

func NewIngestUseCase(repo interfaces.Repository, directory slack.Directory, now func() time.Time) *IngestUseCase {
	return &IngestUseCase{
		repo:      repo,
		directory: directory,
		now:       now,
	}
}

// parseSlackTS converts a Slack message timestamp such as "1700000000.000100"
func parseSlackTS(ts string) (time.Time, error) {
	secPart, fracPart, _ := strings.Cut(ts, ".")
	sec, err := strconv.ParseInt(secPart, 10, 64)
	if err != nil {
		return time.Time{}, goerr.Wrap(err, "invalid slack timestamp", goerr.V("ts", ts))
	}

	var nsec int64
	if fracPart != "" {
		if len(fracPart) > 9 {
			fracPart = fracPart[:9]
		}
		fracPart += strings.Repeat("0", 9-len(fracPart))
		if nsec, err = strconv.ParseInt(fracPart, 10, 64); err != nil {
			return time.Time{}, goerr.Wrap(err, "invalid slack timestamp", goerr.V("ts", ts))
		}
	}
	return time.Unix(sec, nsec).UTC(), nil
}

// HandleSlackEvent processes Slack Events API callbacks
func (uc *IngestUseCase) HandleSlackEvent(ctx context.Context, event *slackevents.EventsAPIEvent) error {
	msg, ok := event.InnerEvent.Data.(*slackevents.MessageEvent)
	if !ok {
		logging.From(ctx).Debug("ignored slack event", "type", event.InnerEvent.Type)
		return nil
	}

	channelType := types.ChannelType(msg.ChannelType)
	if !channelType.IsDirect() || msg.SubType != "" || msg.BotID != "" || msg.User == "" {
		return nil
	}

	return uc.RecordMessage(ctx, model.TeamID(event.TeamID), msg.Channel, channelType, model.UserID(msg.User), msg.TimeStamp, msg.Text, msg.ThreadTimeStamp != "" && msg.ThreadTimeStamp != msg.TimeStamp)
}

// RecordMessage stores one sent interaction per recipient for the sender
// and one received interaction for each recipient.
func (uc *IngestUseCase) RecordMessage(ctx context.Context, teamID model.TeamID, channelID string, channelType types.ChannelType, sender model.UserID, ts, text string, inThread bool) error {
	if uc.directory == nil {
		return goerr.Wrap(ErrNotConfigured, "workspace directory is not configured")
	}

	sentAt, err := parseSlackTS(ts)
	if err != nil {
		return err
	}

	members, err := uc.directory.ChannelMembers(ctx, channelID)
	if err != nil {
		return goerr.Wrap(err, "failed to get conversation members", goerr.V(ChannelIDKey, channelID))
	}

	now := uc.now().UTC()
	text = model.TruncateText(text)
	threadCount := 0
	if inThread {
		threadCount = 1
	}

	for _, member := range members {
		if member == sender {
			continue
		}

		pairs := []struct {
			owner, contact model.UserID
			direction      types.MessageDirection
		}{
			{sender, member, types.MessageDirectionSent},
			{member, sender, types.MessageDirectionReceived},
		}
		for _, pair := range pairs {
			x := &model.Interaction{
				ID:          model.InteractionMessageID(channelID, ts, pair.owner, pair.contact),
				OwnerID:     pair.owner,
				TeamID:      teamID,
				ContactID:   pair.contact,
				ChannelID:   channelID,
				ChannelType: channelType,
				Direction:   pair.direction,
				Text:        text,
				Timestamp:   sentAt,
				ThreadCount: threadCount,
				CreatedAt:   now,
			}
			if err := uc.repo.Interaction().PutInteraction(ctx, x); err != nil {
				return goerr.Wrap(err, "failed to put interaction", goerr.V("id", x.ID))
			}

			if err := uc.touchRelationship(ctx, pair.owner, pair.contact, sentAt); err != nil {
				errutil.Handle(ctx, err, "failed to refresh relationship interaction stats")
			}
		}
	}

	logging.From(ctx).Debug("recorded message interactions",
		"channel_id", channelID,
		"channel_type", channelType,
		"members", len(members))
	return nil
}

// touchRelationship refreshes the denormalised interaction stats of an
// active relationship, if there is one.
func (uc *IngestUseCase) touchRelationship(ctx context.Context, ownerID, contactID model.UserID, at time.Time) error {
	rel, err := uc.repo.Relationship().FindRelationship(ctx, ownerID, contactID)
	if err != nil {
		return goerr.Wrap(err, "failed to find relationship")
	}
	if rel == nil {
		return nil
	}

	count, err := uc.repo.Interaction().CountInteractions(ctx, interfaces.InteractionFilter{
		OwnerID:   ownerID,
		ContactID: contactID,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to count interactions")
	}

	patch := model.RelationshipPatch{InteractionCount: &count}
	if rel.LastInteraction == nil || at.After(*rel.LastInteraction) {
		patch.LastInteraction = &at
	}
	if _, err := uc.repo.Relationship().UpdateRelationship(ctx, ownerID, contactID, patch); err != nil {
		return goerr.Wrap(err, "failed to update relationship")
	}
	return nil
}

// Purge deletes interactions older than the retention period
func (uc *IngestUseCase) Purge(ctx context.Context) (int, error) {
	before := uc.now().Add(-model.InteractionRetention)
	n, err := uc.repo.Interaction().PurgeInteractions(ctx, before)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to purge interactions", goerr.V("before", before))
	}

	logging.From(ctx).Info("purged expired interactions", "count", n, "before", before)
	return n, nil
}
