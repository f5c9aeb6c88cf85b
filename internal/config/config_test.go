package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	require.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("AUTH_TOKEN_TTL_HOURS", "")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	require.Equal(t, defaultTokenTTLHours, cfg.Auth.TokenTTLHours)
	require.True(t, cfg.Auth.TokenTTLDefaulted, "defaulted TTL must be observable")
	require.Equal(t, 168*time.Hour, cfg.Auth.TokenTTL())
	require.Equal(t, "financeerp-api", cfg.App.Name)
}

func TestLoad_ExplicitTTL(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("AUTH_TOKEN_TTL_HOURS", "24")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 24, cfg.Auth.TokenTTLHours)
	require.False(t, cfg.Auth.TokenTTLDefaulted)
	require.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL())
}

func TestLoad_RejectsInvalidTTL(t *testing.T) {
	tests := []struct {
		name string
		ttl  string
	}{
		{name: "negative", ttl: "-1"},
		{name: "zero", ttl: "0"},
		{name: "not a number", ttl: "abc"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("AUTH_JWT_SECRET", "s3cret")
			t.Setenv("AUTH_TOKEN_TTL_HOURS", tc.ttl)

			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestAppConfig_Addr(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("APP_HOST", "127.0.0.1")
	t.Setenv("APP_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9090", cfg.App.Addr())
}
