package constants

const (
	AppName      = "medcenter"
	ConfigName   = "config"
	ConfigFormat = "yaml"
	EnvPrefix    = "MEDCENTER"
)

// Redis key prefixes.
const (
	RedisSessionPrefix     = "medcenter:session:"
	RedisOTPAttemptsPrefix = "medcenter:otp:attempts:"
	RedisCaseTokenKey      = "medcenter:case:token"
	RedisRateLimitPrefix   = "medcenter:ratelimit:"
)

// NATS subjects.
const (
	SubjectHistoryOverride = "medcenter.history.override"
	SubjectLabStatus       = "medcenter.lab.status"
	SubjectLabDone         = "medcenter.lab.done"
)
