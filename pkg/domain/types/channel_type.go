package types

import "github.com/m-mizutani/goerr/v2"

// ChannelType is the Slack conversation type an interaction happened in
type ChannelType string

const (
	ChannelTypeIM             ChannelType = "im"
	ChannelTypeMPIM           ChannelType = "mpim"
	ChannelTypePrivateChannel ChannelType = "private_channel"
	ChannelTypePublicChannel  ChannelType = "public_channel"
)

// IsValid checks if the channel type is valid
func (c ChannelType) IsValid() bool {
	switch c {
	case ChannelTypeIM,
		ChannelTypeMPIM,
		ChannelTypePrivateChannel,
		ChannelTypePublicChannel:
		return true
	default:
		return false
	}
}

// IsDirect reports whether the channel is a direct or group direct message
func (c ChannelType) IsDirect() bool {
	return c == ChannelTypeIM || c == ChannelTypeMPIM
}

func (c ChannelType) String() string {
	return string(c)
}

// ParseChannelType parses a string into a ChannelType
func ParseChannelType(s string) (ChannelType, error) {
	c := ChannelType(s)
	if !c.IsValid() {
		return "", goerr.New("invalid channel type", goerr.V("channel_type", s))
	}
	return c, nil
}

// MessageDirection is the direction of a message from the owner's point of view
type MessageDirection string

const (
	MessageDirectionSent     MessageDirection = "sent"
	MessageDirectionReceived MessageDirection = "received"
)

// IsValid checks if the direction is valid
func (d MessageDirection) IsValid() bool {
	return d == MessageDirectionSent || d == MessageDirectionReceived
}

func (d MessageDirection) String() string {
	return string(d)
}
