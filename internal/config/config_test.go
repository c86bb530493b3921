package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load([]byte(`self_url: plasma://localhost:9100`))
	require.NoError(t, err)
	require.Equal(t, "plasma://localhost:9100", cfg.SelfURL)
	require.Equal(t, DefaultPeerConfig().DefaultHTL, cfg.DefaultHTL)
	require.Equal(t, DefaultPeerConfig().RPCTimeout, cfg.RPCTimeout)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	cfg, err := Load([]byte(`
self_url: plasma://localhost:9100
seed_peers:
  - plasma://otherhost:9100
default_htl: 4
rpc_timeout: 1s
sub_query_timeout: 2s
`))
	require.NoError(t, err)
	require.Equal(t, []string{"plasma://otherhost:9100"}, cfg.SeedPeers)
	require.Equal(t, 4, cfg.DefaultHTL)
	require.Equal(t, time.Second, cfg.RPCTimeout)
	require.Equal(t, 2*time.Second, cfg.SubQueryTimeout)
}

func TestLoad_RejectsMissingSelfURL(t *testing.T) {
	_, err := Load([]byte(`default_htl: 4`))
	require.Error(t, err)
}

func TestLoad_RejectsBadURLScheme(t *testing.T) {
	_, err := Load([]byte(`self_url: http://localhost:9100`))
	require.Error(t, err)
}

func TestLoad_RejectsHTLOutOfRange(t *testing.T) {
	_, err := Load([]byte(`
self_url: plasma://localhost:9100
default_htl: 0
`))
	require.Error(t, err)
}

func TestValidate_RejectsSubQueryTimeoutBelowRPCTimeout(t *testing.T) {
	cfg := DefaultPeerConfig()
	cfg.SelfURL = "plasma://localhost:9100"
	cfg.RPCTimeout = 5 * time.Second
	cfg.SubQueryTimeout = time.Second
	require.Error(t, cfg.Validate())
}

func TestLoad_AuthSecretOptional(t *testing.T) {
	cfg, err := Load([]byte(`self_url: plasma://localhost:9100`))
	require.NoError(t, err)
	require.Empty(t, cfg.AuthSecret)
}

func TestLoad_RejectsShortAuthSecret(t *testing.T) {
	_, err := Load([]byte(`
self_url: plasma://localhost:9100
auth_secret: too-short
`))
	require.Error(t, err)
}

func TestLoad_AcceptsValidAuthSecret(t *testing.T) {
	cfg, err := Load([]byte(`
self_url: plasma://localhost:9100
auth_secret: this-secret-is-at-least-32-characters-long
`))
	require.NoError(t, err)
	require.Equal(t, "this-secret-is-at-least-32-characters-long", cfg.AuthSecret)
}
