package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedEnv = []string{
	"RENT_APP_NAME",
	"RENT_APP_ENV",
	"RENT_APP_PORT",
	"RENT_APP_AUTO_MIGRATE",
	"RENT_DATABASE_DRIVER",
	"RENT_DATABASE_HOST",
	"RENT_DATABASE_PORT",
	"RENT_DATABASE_USER",
	"RENT_DATABASE_PASSWORD",
	"RENT_DATABASE_DBNAME",
	"RENT_DATABASE_SSLMODE",
	"RENT_DATABASE_MAX_OPEN_CONNS",
	"RENT_DATABASE_MAX_IDLE_CONNS",
	"RENT_JWT_SECRET",
	"RENT_REDIS_ENABLED",
	"RENT_ADMIN_ACCOUNTS",
	"RENT_IDEMPOTENCY_TTL",
	"RENT_TELEMETRY_SAMPLING_RATIO",
	"RENT_TELEMETRY_DB_LOG_FULL_SQL",
	"RENT_HTTP_CORS_ALLOW_ORIGINS",
}

// isolateEnv clears the managed variables and restores them when the test ends.
func isolateEnv(t *testing.T) {
	t.Helper()
	original := make(map[string]string, len(managedEnv))
	for _, k := range managedEnv {
		original[k] = os.Getenv(k)
		os.Unsetenv(k)
	}
	t.Cleanup(func() {
		for k, v := range original {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		isolateEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "rentflow-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.False(t, cfg.App.AutoMigrate)
		assert.Equal(t, "postgres", cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "postgres", cfg.Database.User)
		assert.Equal(t, "", cfg.Database.Password)
		assert.Equal(t, "rentflow", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.False(t, cfg.Redis.Enabled)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
		assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenExpiration)
		assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
		assert.Equal(t, "rentflow:event:processed:", cfg.Idempotency.KeyPrefix)
		assert.Empty(t, cfg.Admin.Accounts)
	})

	t.Run("loads values from environment variables with RENT prefix", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("RENT_APP_NAME", "test-app")
		os.Setenv("RENT_APP_ENV", "testing")
		os.Setenv("RENT_APP_PORT", "9000")
		os.Setenv("RENT_APP_AUTO_MIGRATE", "true")
		os.Setenv("RENT_DATABASE_HOST", "testdb.local")
		os.Setenv("RENT_DATABASE_PORT", "5433")
		os.Setenv("RENT_DATABASE_USER", "testuser")
		os.Setenv("RENT_DATABASE_PASSWORD", "testpass")
		os.Setenv("RENT_DATABASE_DBNAME", "testdb")
		os.Setenv("RENT_DATABASE_SSLMODE", "require")
		os.Setenv("RENT_DATABASE_MAX_OPEN_CONNS", "50")
		os.Setenv("RENT_DATABASE_MAX_IDLE_CONNS", "10")
		os.Setenv("RENT_REDIS_ENABLED", "true")
		os.Setenv("RENT_IDEMPOTENCY_TTL", "2h")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testing", cfg.App.Env)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.True(t, cfg.App.AutoMigrate)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testuser", cfg.Database.User)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, "testdb", cfg.Database.DBName)
		assert.Equal(t, "require", cfg.Database.SSLMode)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, 2*time.Hour, cfg.Idempotency.TTL)
	})

	t.Run("accepts sqlite driver", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("RENT_DATABASE_DRIVER", "sqlite")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "sqlite", cfg.Database.Driver)
		assert.Equal(t, "rentflow.db", cfg.Database.SQLitePath)
	})

	t.Run("rejects unknown driver", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("RENT_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("parses admin accounts", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("RENT_ADMIN_ACCOUNTS", "admin@rentflow.pl,$2a$10$abc other@rentflow.pl,$2a$10$def")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, []string{"admin@rentflow.pl,$2a$10$abc", "other@rentflow.pl,$2a$10$def"}, cfg.Admin.Accounts)
	})

	t.Run("rejects admin account without hash", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("RENT_ADMIN_ACCOUNTS", "admin@rentflow.pl")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "admin.accounts")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("RENT_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("RENT_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("zero MaxOpenConns uses default", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("RENT_DATABASE_MAX_OPEN_CONNS", "0")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	})

	t.Run("validates MaxIdleConns cannot be negative", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("RENT_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})

	t.Run("validates sampling ratio range", func(t *testing.T) {
		isolateEnv(t)
		os.Setenv("RENT_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func() {
		os.Setenv("RENT_APP_ENV", "production")
		os.Setenv("RENT_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		os.Setenv("RENT_DATABASE_PASSWORD", "secure-password")
		os.Setenv("RENT_DATABASE_SSLMODE", "require")
	}

	t.Run("requires jwt.secret in production", func(t *testing.T) {
		isolateEnv(t)
		setValidProductionBase()
		os.Unsetenv("RENT_JWT_SECRET")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret is required in production")
	})

	t.Run("requires jwt.secret at least 32 characters in production", func(t *testing.T) {
		isolateEnv(t)
		setValidProductionBase()
		os.Setenv("RENT_JWT_SECRET", "short-secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret must be at least 32 characters")
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		isolateEnv(t)
		setValidProductionBase()
		os.Unsetenv("RENT_DATABASE_PASSWORD")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		isolateEnv(t)
		setValidProductionBase()
		os.Setenv("RENT_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("rejects sqlite in production", func(t *testing.T) {
		isolateEnv(t)
		setValidProductionBase()
		os.Setenv("RENT_DATABASE_DRIVER", "sqlite")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be postgres in production")
	})

	t.Run("rejects auto migrate in production", func(t *testing.T) {
		isolateEnv(t)
		setValidProductionBase()
		os.Setenv("RENT_APP_AUTO_MIGRATE", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "app.auto_migrate")
	})

	t.Run("rejects wildcard CORS origin in production", func(t *testing.T) {
		isolateEnv(t)
		setValidProductionBase()
		os.Setenv("RENT_HTTP_CORS_ALLOW_ORIGINS", "*")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cors_allow_origins")
	})

	t.Run("rejects full SQL logging in production", func(t *testing.T) {
		isolateEnv(t)
		setValidProductionBase()
		os.Setenv("RENT_TELEMETRY_DB_LOG_FULL_SQL", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db_log_full_sql")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		isolateEnv(t)
		setValidProductionBase()

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "pass%40word%23123")
	})

	t.Run("handles empty password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.NotEmpty(t, dsn)
	})
}
