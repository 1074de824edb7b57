package subscription

type Channel string

const (
	ChannelWebPush  Channel = "webpush"
	ChannelTelegram Channel = "telegram"
	ChannelNATS     Channel = "nats"
)

func (c Channel) String() string {
	return string(c)
}

func (c Channel) Label() string {
	switch c {
	case ChannelWebPush:
		return "WebPush"
	case ChannelTelegram:
		return "Telegram"
	case ChannelNATS:
		return "NATS"
	default:
		return string(c)
	}
}

// IsBroadcast reports whether the channel delivers without a stored
// subscription row.
func (c Channel) IsBroadcast() bool {
	return c == ChannelNATS
}

func (c Channel) IsAvailable(telegramEnabled, natsEnabled bool) bool {
	switch c {
	case ChannelWebPush:
		return true
	case ChannelTelegram:
		return telegramEnabled
	case ChannelNATS:
		return natsEnabled
	default:
		return false
	}
}
