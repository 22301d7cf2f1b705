package file

import (
	"github.com/Alijeyrad/medcenter_backend/config"
)

const (
	defaultMaxSize   = 20 << 20
	defaultKeyPrefix = "files"
)

type Config struct {
	MaxSize int64
	// AllowedContentTypes is matched exactly. Empty allows everything.
	AllowedContentTypes []string
	KeyPrefix           string
}

func DefaultConfig() Config {
	return Config{MaxSize: defaultMaxSize, KeyPrefix: defaultKeyPrefix}
}

func FromCentralConfig(c *config.Config) Config {
	cfg := DefaultConfig()
	if c.Lab.MaxFileSizeMB > 0 {
		cfg.MaxSize = int64(c.Lab.MaxFileSizeMB) << 20
	}
	cfg.AllowedContentTypes = c.Lab.AllowedContentTypes
	return cfg
}
