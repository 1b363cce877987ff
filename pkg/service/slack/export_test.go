package slack

// Export internal functions for testing
var (
	ToUser         = toUser
	SplitInterests = splitInterests
)
