package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/relmap/pkg/domain/types"
)

func TestRelationshipType_IsValid(t *testing.T) {
	for _, rt := range types.AllRelationshipTypes() {
		gt.B(t, rt.IsValid()).True()
	}
	gt.B(t, types.RelationshipType("").IsValid()).False()
	gt.B(t, types.RelationshipType("enemy").IsValid()).False()
}

func TestParseRelationshipType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    types.RelationshipType
		wantErr bool
	}{
		{name: "colleague", input: "colleague", want: types.RelationshipTypeColleague},
		{name: "custom", input: "custom", want: types.RelationshipTypeCustom},
		{name: "upper case is rejected", input: "MENTOR", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := types.ParseRelationshipType(tt.input)
			if tt.wantErr {
				gt.Error(t, err)
				return
			}
			gt.NoError(t, err)
			gt.Value(t, got).Equal(tt.want)
		})
	}
}

func TestParseAddedVia(t *testing.T) {
	v, err := types.ParseAddedVia("recent_dms")
	gt.NoError(t, err)
	gt.Value(t, v).Equal(types.AddedViaRecentDMs)

	_, err = types.ParseAddedVia("import")
	gt.Error(t, err)
}

func TestChannelType(t *testing.T) {
	gt.B(t, types.ChannelTypeIM.IsDirect()).True()
	gt.B(t, types.ChannelTypeMPIM.IsDirect()).True()
	gt.B(t, types.ChannelTypePublicChannel.IsDirect()).False()

	c, err := types.ParseChannelType("private_channel")
	gt.NoError(t, err)
	gt.Value(t, c).Equal(types.ChannelTypePrivateChannel)

	_, err = types.ParseChannelType("dm")
	gt.Error(t, err)

	gt.B(t, types.MessageDirectionSent.IsValid()).True()
	gt.B(t, types.MessageDirection("forwarded").IsValid()).False()
}
