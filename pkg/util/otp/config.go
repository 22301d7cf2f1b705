package otp

import (
	"fmt"

	"github.com/Alijeyrad/medcenter_backend/config"
)

// Config holds OTP generation settings
type Config struct {
	// Length is the number of digits in issued codes
	Length int

	// HashAlgorithm names the stored-code hash: "sha256" or "argon2id"
	HashAlgorithm string
}

// DefaultConfig returns sensible defaults for OTP generation
func DefaultConfig() Config {
	return Config{
		Length:        DefaultLength,
		HashAlgorithm: AlgorithmSHA256,
	}
}

// Validate checks if the config values are valid
func (c Config) Validate() error {
	if c.Length < MinLength || c.Length > MaxLength {
		return ErrInvalidLength
	}
	if c.HashAlgorithm != AlgorithmSHA256 && c.HashAlgorithm != AlgorithmArgon2id {
		return fmt.Errorf("otp: unsupported hash algorithm %q", c.HashAlgorithm)
	}
	return nil
}

// FromCentralConfig converts central config.OTPConfig to package Config,
// falling back to defaults for unset fields.
func FromCentralConfig(c config.OTPConfig) Config {
	cfg := DefaultConfig()
	if c.DefaultLength > 0 {
		cfg.Length = c.DefaultLength
	}
	if c.HashAlgorithm != "" {
		cfg.HashAlgorithm = c.HashAlgorithm
	}
	return cfg
}
