package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/Alijeyrad/medcenter_backend/pkg/constants"
	"github.com/spf13/viper"
)

var GlobalConf *Config

func ReadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(constants.ConfigName)
	v.SetConfigType(constants.ConfigFormat)
	v.AddConfigPath(configPath)

	setDefaults(v)

	// Allow env vars to override config values.
	// e.g. MEDCENTER_DATABASE_HOST overrides database.host
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read the config file (optional in Docker environments)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %v", err)
		}
		if os.Getenv(constants.EnvPrefix+"_DATABASE_HOST") == "" {
			return nil, fmt.Errorf("config file not found in %q and no env overrides set", configPath)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %v", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func MustReadConfig(path string) *Config {
	config, err := ReadConfig(path)
	if err != nil {
		panic(err)
	}

	GlobalConf = config

	return config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 30)
	v.SetDefault("server.body_limit_mb", 25)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.rate_limit.requests_per_minute", 120)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.migrations.safe_mode", true)

	v.SetDefault("redis.addr", "localhost:6379")

	v.SetDefault("authentication.session_ttl_minutes", 720)
	v.SetDefault("authentication.paseto.mode", "local")
	v.SetDefault("authentication.paseto.issuer", "medcenter")
	v.SetDefault("authentication.paseto.access_ttl_minutes", 720)

	v.SetDefault("authorization.casbin_model_path", "config/rbac_model.conf")
	v.SetDefault("authorization.enable_audit", true)

	v.SetDefault("email.breaker.max_consecutive_failures", 5)
	v.SetDefault("email.breaker.open_timeout_seconds", 30)

	v.SetDefault("history.otp_ttl_minutes", 0)
	v.SetDefault("history.consume_on_verify", true)
	v.SetDefault("history.max_verify_attempts", 5)
	v.SetDefault("history.override_min_reason", 20)

	v.SetDefault("lab.max_file_size_mb", 20)
	v.SetDefault("lab.notify_doctor_on_done", true)

	v.SetDefault("patient.phone_region", "IN")

	v.SetDefault("observability.service_name", "medcenter")
	v.SetDefault("observability.metrics.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output.stdout", true)

	v.SetDefault("s3.presign_ttl_sec", 900)
}
