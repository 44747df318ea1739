package db

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"campusreservation/pkg/config"
)

func TestRuntimeConnString_PrefersDatabaseURL(t *testing.T) {
	cfg := config.Config{
		DatabaseURL: "postgres://pooler/db?pgbouncer=true",
		DB:          config.DBConfig{User: "u", Password: "p", Host: "h", Port: "5432", Name: "n"},
	}
	assert.Equal(t, cfg.DatabaseURL, runtimeConnString(cfg))

	cfg.DatabaseURL = "  "
	assert.Equal(t, "postgres://u:p@h:5432/n?sslmode=disable", runtimeConnString(cfg))
}

func TestMigrationConnString_PrefersDirectURL(t *testing.T) {
	cfg := config.Config{DatabaseURL: "postgres://pooler/db", DirectURL: "postgres://direct/db"}
	assert.Equal(t, "postgres://direct/db", migrationConnString(cfg))

	cfg.DirectURL = ""
	assert.Equal(t, "postgres://pooler/db", migrationConnString(cfg))
}
