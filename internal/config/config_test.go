package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/appointments")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, loaded, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.False(t, loaded)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "start_in_window", cfg.SlotPolicy)
	assert.Equal(t, "0 8 * * *", cfg.DigestCron)
	assert.Equal(t, time.Second, cfg.RetryBaseDelay)
	assert.Equal(t, 3, cfg.RetryMaxAttempts)
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.HasAdminSeed())
	assert.Equal(t, "Administrator", cfg.AdminName)
}

func TestLoad_AdminSeed(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/appointments")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ADMIN_EMAIL", "root@university.edu")
	t.Setenv("ADMIN_PASSWORD", "secret1")

	cfg, _, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.True(t, cfg.HasAdminSeed())
	assert.Equal(t, "root@university.edu", cfg.AdminEmail)
}

func TestLoad_DotEnvFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	// godotenv не перезаписывает уже заданные переменные
	t.Setenv("ENV", "production")

	path := filepath.Join(t.TempDir(), ".env")
	content := "DB_DSN=postgres://db/appointments\nENV=development\nSLOT_POLICY=end_in_window\nRETRY_BASE_DELAY=10ms\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() {
		for _, key := range []string{"DB_DSN", "SLOT_POLICY", "RETRY_BASE_DELAY"} {
			os.Unsetenv(key)
		}
	})

	cfg, loaded, err := Load(path)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, "postgres://db/appointments", cfg.DBDSN)
	assert.Equal(t, "end_in_window", cfg.SlotPolicy)
	assert.Equal(t, 10*time.Millisecond, cfg.RetryBaseDelay)
	assert.True(t, cfg.IsProduction())
}

func TestLoad_Invalid(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.env")

	t.Run("required", func(t *testing.T) {
		t.Setenv("DB_DSN", "")
		t.Setenv("JWT_SECRET", "s3cret")
		_, _, err := Load(missing)
		require.Error(t, err)
	})

	tests := map[string][2]string{
		"slot policy": {"SLOT_POLICY", "overlap"},
		"cron":        {"DIGEST_CRON", "every morning"},
		"ttl":         {"JWT_TTL", "-1h"},
		"attempts":    {"RETRY_MAX_ATTEMPTS", "0"},
		"admin email": {"ADMIN_EMAIL", "root@university.edu"},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("DB_DSN", "postgres://localhost/appointments")
			t.Setenv("JWT_SECRET", "s3cret")
			t.Setenv(kv[0], kv[1])
			_, _, err := Load(missing)
			require.Error(t, err)
		})
	}
}
