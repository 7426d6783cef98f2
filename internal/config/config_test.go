package config

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "http://127.0.0.1:8000/api", cfg.APIURL)
	assert.Equal(t, "c2d_session", cfg.SessionCookie)
	assert.Equal(t, 2*time.Minute, cfg.DeleteConfirmTTL)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_FromEnvVars(t *testing.T) {
	t.Setenv("SESSION_SECRET", testSecret)
	t.Setenv("C2D_API_URL", "https://api.code2deploy.test/api/")
	t.Setenv("CORS_ORIGINS", "https://a.test, https://b.test")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.code2deploy.test/api", cfg.APIURL)
	assert.Len(t, cfg.CORSOrigins, 2)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestParseTrustedProxies(t *testing.T) {
	nets, err := ParseTrustedProxies([]string{" 10.0.0.0/8", "", "192.0.2.7", "::ffff:198.51.100.1", "2001:db8::/32"})
	require.NoError(t, err)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.0.2.7/32"),
		netip.MustParsePrefix("198.51.100.1/32"),
		netip.MustParsePrefix("2001:db8::/32"),
	}, nets)

	_, err = ParseTrustedProxies([]string{"proxy.internal"})
	assert.Error(t, err)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "missing secret", env: map[string]string{"SESSION_SECRET": ""}, want: "SESSION_SECRET is required"},
		{name: "short secret", env: map[string]string{"SESSION_SECRET": "short"}, want: "at least 32"},
		{name: "relative api url", env: map[string]string{"SESSION_SECRET": testSecret, "C2D_API_URL": "/api"}, want: "C2D_API_URL"},
		{name: "bad log format", env: map[string]string{"SESSION_SECRET": testSecret, "LOG_FORMAT": "xml"}, want: "LOG_FORMAT"},
		{name: "bad trusted proxy", env: map[string]string{"SESSION_SECRET": testSecret, "TRUSTED_PROXIES": "10.0.0.0/33"}, want: "TRUSTED_PROXIES"},
		{name: "bad breaker ratio", env: map[string]string{"SESSION_SECRET": testSecret, "BREAKER_FAILURE_RATIO": "1.5"}, want: "BREAKER_FAILURE_RATIO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
