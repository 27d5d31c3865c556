package constants

import "time"

// Redis keys
const (
	RedisKeyRecentAsks  = "asks:recent"
	RedisKeyChartPrefix = "chart:"
)

// Redis Pub/Sub channels
const (
	PubSubChannelAsks = "asks:live"
	// Per chart kind, e.g. "asks:chart:line".
	PubSubChannelChartPrefix = "asks:chart:"
)

// Limits
const (
	MaxRecentAsks     = 100
	DefaultRecentAsks = 20
	MaxQuestionLength = 1000
	MaxAudioBytes     = 25 << 20 // Whisper upload cap
)

// Defaults
const (
	DefaultChartTTL        = 24 * time.Hour
	DefaultGenerateTimeout = 30 * time.Second
)
