package config

import (
	"testing"
	"time"

	"paywall-bench/core/payload"
	"paywall-bench/core/paywall"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DEFAULT_PAYWALL_URL, cfg.PaywallURL)
	assert.Equal(t, payload.DefaultFields, cfg.MacFields)
	assert.Equal(t, 1800*time.Millisecond, cfg.WallTimeouts.Response)
	assert.Equal(t, 3500*time.Millisecond, cfg.ProbeTimeouts.Deadline)
	assert.Equal(t, paywall.FanOut{Limit: 0, Mode: paywall.ModeFirstError}, cfg.FanOut())
	assert.False(t, cfg.BrokerEnabled())

	defaults := cfg.Defaults()
	assert.Equal(t, "375917", defaults["MERCHANT"])
	assert.Equal(t, "SAIPPUAKAUPPIAS", defaults["SECURITY_KEY"])
	assert.Equal(t, "0001", defaults["VERSION"])
	assert.Equal(t, "3", defaults["ALGORITHM"])
	for _, field := range payload.DefaultFields {
		assert.Contains(t, defaults, field)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PAYWALL_URL", "http://localhost:9000/")
	t.Setenv("PAYWALL_MERCHANT", "1")
	t.Setenv("PAYWALL_MAC_ALGORITHM", "SHA256")
	t.Setenv("PAYWALL_MAC_FIELDS", "VERSION, STAMP ,SECURITY_KEY")
	t.Setenv("PROBE_RESPONSE_TIMEOUT", "250")
	t.Setenv("PROBE_DEADLINE", "1.5s")
	t.Setenv("PROBE_CONCURRENCY", "4")
	t.Setenv("PROBE_MODE", "settled")
	t.Setenv("BENCHMARK_REQUESTS_QUEUE_NAME", "requests")
	t.Setenv("BENCHMARK_RESPONSES_QUEUE_NAME", "responses")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"VERSION", "STAMP", "SECURITY_KEY"}, cfg.MacFields)
	assert.Equal(t, 250*time.Millisecond, cfg.ProbeTimeouts.Response)
	assert.Equal(t, 1500*time.Millisecond, cfg.ProbeTimeouts.Deadline)
	assert.Equal(t, paywall.FanOut{Limit: 4, Mode: paywall.ModeSettled}, cfg.FanOut())
	assert.True(t, cfg.BrokerEnabled())

	signer := cfg.Signer()
	assert.Equal(t, payload.SHA256, signer.Algorithm)
	assert.Equal(t, "1", signer.Defaults["MERCHANT"])

	client := cfg.ClientConfig()
	assert.Equal(t, "http://localhost:9000/", client.URL)
	assert.Equal(t, cfg.WallTimeouts, client.Wall)
}

func TestLoadRejectsInvalidConfiguration(t *testing.T) {
	cases := map[string][2]string{
		"duration":       {"PAYWALL_DEADLINE", "soon"},
		"concurrency":    {"PROBE_CONCURRENCY", "many"},
		"negative limit": {"PROBE_CONCURRENCY", "-1"},
		"mode":           {"PROBE_MODE", "eventually"},
		"algorithm":      {"PAYWALL_MAC_ALGORITHM", "crc32"},
		"url":            {"PAYWALL_URL", "not a url"},
		"unknown field":  {"PAYWALL_MAC_FIELDS", "VERSION,NOT_A_FIELD"},
		"mac in fields":  {"PAYWALL_MAC_FIELDS", "VERSION,MAC"},
		"port":           {"PORT", "http"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(env[0], env[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadRequiresResponsesQueue(t *testing.T) {
	t.Setenv("BENCHMARK_REQUESTS_QUEUE_NAME", "requests")
	_, err := Load()
	assert.Error(t, err)
}

func TestGetDuration(t *testing.T) {
	t.Setenv("SOME_TIMEOUT", "0")
	d, err := getDuration("SOME_TIMEOUT", time.Second)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), d)

	t.Setenv("SOME_TIMEOUT", "-5s")
	_, err = getDuration("SOME_TIMEOUT", time.Second)
	assert.Error(t, err)

	d, err = getDuration("UNSET_TIMEOUT", time.Second)
	require.NoError(t, err)
	assert.Equal(t, time.Second, d)
}
