package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/Alijeyrad/medcenter_backend/config"
)

func TestDSN_QuotesValues(t *testing.T) {
	c := Config{Host: "db", Port: 5432, User: "med", Password: "p w'd", DBName: "medcenter", SSLMode: "disable"}
	assert.Equal(t, `host=db port=5432 user=med password='p w\'d' dbname=medcenter sslmode=disable`, c.DSN())

	c.Password = ""
	assert.Contains(t, c.DSN(), "password=''")
}

func TestConfigDurations(t *testing.T) {
	assert.Equal(t, 5*time.Minute, Config{}.ConnMaxLifetime())
	assert.Equal(t, 200*time.Millisecond, Config{}.SlowQueryThreshold())
	assert.Equal(t, time.Second, Config{SlowQueryThresholdMs: 1000}.SlowQueryThreshold())
}

func TestDatabaseNames(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.DBName = "medcenter"
	cfg.CasbinDatabase.DBName = "medcenter_casbin"
	cfg.Server.Databases = []string{"medcenter", "", "analytics"}

	assert.Equal(t, []string{"medcenter", "medcenter_casbin", "analytics"}, DatabaseNames(cfg))
}

func TestPgErrorHelpers(t *testing.T) {
	uniq := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "professors_psrn_key"})

	assert.True(t, IsUniqueViolation(uniq))
	assert.True(t, IsUniqueViolation(uniq, "professors_psrn_key"))
	assert.False(t, IsUniqueViolation(uniq, "cases_token_key"))
	assert.False(t, IsForeignKeyViolation(uniq))
	assert.False(t, IsUniqueViolation(fmt.Errorf("plain")))
}
