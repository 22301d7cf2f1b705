package history

import (
	"time"

	"github.com/Alijeyrad/medcenter_backend/config"
	"github.com/Alijeyrad/medcenter_backend/pkg/util/otp"
)

const (
	// Disclosure codes are always six digits.
	codeLength           = 6
	defaultAttemptWindow = 15 * time.Minute
)

type Config struct {
	// TTL bounds code validity. Zero keeps a code valid until it is used or
	// replaced.
	TTL               time.Duration
	ConsumeOnVerify   bool
	MaxVerifyAttempts int
	AttemptWindow     time.Duration
	OverrideMinReason int
	ComplianceEmail   string
	SMSCopy           bool
	// HashAlgorithm is passed to otp.HashWith for stored codes.
	HashAlgorithm string
}

func DefaultConfig() Config {
	return Config{
		ConsumeOnVerify:   true,
		MaxVerifyAttempts: 5,
		AttemptWindow:     defaultAttemptWindow,
		OverrideMinReason: 20,
		HashAlgorithm:     otp.AlgorithmSHA256,
	}
}

func FromCentralConfig(c *config.Config) Config {
	cfg := DefaultConfig()
	cfg.TTL = time.Duration(c.History.OTPTTLMinutes) * time.Minute
	cfg.ConsumeOnVerify = c.History.ConsumeOnVerify
	cfg.MaxVerifyAttempts = c.History.MaxVerifyAttempts
	if c.History.OverrideMinReason > 0 {
		cfg.OverrideMinReason = c.History.OverrideMinReason
	}
	cfg.ComplianceEmail = c.History.ComplianceEmail
	cfg.SMSCopy = c.History.SMSCopy && c.SMS.Enabled
	cfg.HashAlgorithm = otp.FromCentralConfig(c.OTP).HashAlgorithm
	return cfg
}
