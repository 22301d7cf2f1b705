package patient

import (
	"strings"

	"github.com/Alijeyrad/medcenter_backend/config"
)

const defaultRegion = "IN"

type Config struct {
	// PhoneRegion is the ISO 3166 region assumed for numbers without a
	// country code.
	PhoneRegion string
}

func DefaultConfig() Config {
	return Config{PhoneRegion: defaultRegion}
}

func FromCentralConfig(c *config.Config) Config {
	cfg := DefaultConfig()
	if r := strings.TrimSpace(c.Patient.PhoneRegion); r != "" {
		cfg.PhoneRegion = strings.ToUpper(r)
	}
	return cfg
}
