package authorize

import "github.com/Alijeyrad/medcenter_backend/config"

// Config holds configuration for the authorization system
type Config struct {
	// CasbinModelPath is the path to the Casbin model configuration file
	CasbinModelPath string

	// EnableAudit enables audit logging for all authorization decisions
	EnableAudit bool

	// SuperadminBypass lets admins skip policy evaluation
	SuperadminBypass bool

	// PolicySyncEnabled attaches the postgres watcher so policy changes
	// propagate across instances
	PolicySyncEnabled bool

	// HealthCheckEnabled exposes policy load health to the readiness probe
	HealthCheckEnabled bool
}

// DefaultConfig returns sensible defaults for authorization configuration
func DefaultConfig() Config {
	return Config{
		CasbinModelPath:    "config/rbac_model.conf",
		EnableAudit:        true,
		SuperadminBypass:   true,
		PolicySyncEnabled:  false,
		HealthCheckEnabled: true,
	}
}

// FromCentralConfig converts central config.AuthorizationConfig to package Config
func FromCentralConfig(c config.AuthorizationConfig) Config {
	cfg := Config{
		CasbinModelPath:    c.CasbinModelPath,
		EnableAudit:        c.EnableAudit,
		SuperadminBypass:   c.SuperadminBypass,
		PolicySyncEnabled:  c.PolicySyncEnabled,
		HealthCheckEnabled: c.HealthCheckEnabled,
	}
	if cfg.CasbinModelPath == "" {
		cfg.CasbinModelPath = DefaultConfig().CasbinModelPath
	}
	return cfg
}
