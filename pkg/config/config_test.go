package config

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_DRIVER", "postgres")

	cfg, err := Load("bizdesk-service")
	require.NoError(t, err)

	assert.Equal(t, "bizdesk-service", cfg.DB.DBName)
	assert.Equal(t, "bizdesk_service", cfg.Metrics.Prefix)
	assert.Equal(t, "sid", cfg.Session.CookieName)
	assert.Equal(t, "auto", cfg.DB.Migrate)
	assert.False(t, cfg.Auth.AutoRegister)
	assert.Equal(t, 5*time.Second, cfg.DB.OpTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", "/tmp/test.db")
	t.Setenv("DB_OP_TIMEOUT", "250ms")
	t.Setenv("DB_LOG_LEVEL", "silent")
	t.Setenv("AUTH_AUTO_REGISTER", "true")
	t.Setenv("CORS_ALLOW_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")

	cfg, err := Load("bizdesk-service")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "/tmp/test.db", cfg.DB.Path)
	assert.Equal(t, 250*time.Millisecond, cfg.DB.OpTimeout)
	assert.Equal(t, logger.Silent, cfg.DB.LogLevel)
	assert.True(t, cfg.Auth.AutoRegister)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowOrigins)
	assert.Equal(t, 25, cfg.DB.MaxOpenConns)
}

func TestLoadRejectsDefaultSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", "devsessionsecret")

	_, err := Load("bizdesk-service")
	assert.Error(t, err)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Load("bizdesk-service")
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	c := DBConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", c.GetDSN())
	assert.Equal(t, "postgres://u:p@db:5432/n?sslmode=disable", c.GetMigrateURL())
}

func TestMigrateURLEscapesCredentials(t *testing.T) {
	c := DBConfig{Host: "db", Port: "5432", User: "app@corp", Password: "p@ss:w/rd?#", DBName: "biz desk", SSLMode: "require"}

	u, err := url.Parse(c.GetMigrateURL())
	require.NoError(t, err)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "app@corp", u.User.Username())
	pass, ok := u.User.Password()
	require.True(t, ok)
	assert.Equal(t, "p@ss:w/rd?#", pass)
	assert.Equal(t, "db:5432", u.Host)
	assert.Equal(t, "/biz desk", u.Path)
	assert.Equal(t, "require", u.Query().Get("sslmode"))

	c.Host = "::1"
	u, err = url.Parse(c.GetMigrateURL())
	require.NoError(t, err)
	assert.Equal(t, "[::1]:5432", u.Host)
}
