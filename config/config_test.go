package config_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/scalarorg/lending-bridge/config"
	"github.com/scalarorg/lending-bridge/pkg/types"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

var (
	authority = types.Identity{0x01, 0x02}
	gatewayID = types.Identity{0x0a, 0x0b}
	tss       = types.Identity{0x7e, 0x55}
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(body), 0o600))
	return dir
}

func validConfig(extra string) string {
	return fmt.Sprintf(`{
		"bridge": {
			"authority": %q,
			"remote_protocol_address": "0x9A676e781A523b5d0C0e43731313A708CB607508",
			"remote_chain_id": 7001,
			"allowed_dest_chains": [421614, 11155111]
		},
		"inbound": {"gateway_id": %q, "tss_authority": %q, "chain_id": 7001}%s
	}`, authority.String(), gatewayID.String(), tss.String(), extra)
}

func TestReadAppliesDefaults(t *testing.T) {
	dir := writeConfig(t, validConfig(""))
	cfg, err := config.Read(viper.New(), dir)
	require.NoError(t, err)

	require.Equal(t, types.DepositFee, cfg.Bridge.DepositFee)
	require.Equal(t, types.GasLimit, cfg.Bridge.GasLimit)
	require.Equal(t, "legacy", cfg.Bridge.CodecMode)
	require.True(t, cfg.Bridge.CallOnRevert)
	require.Equal(t, []uint64{421614, 11155111}, cfg.Bridge.AllowedDestChains)
	require.Equal(t, "memory", cfg.Gateway.Mode)
	require.Equal(t, 30*time.Second, cfg.Gateway.BreakerTimeout)
	require.True(t, cfg.Inbound.Secure)
	require.Equal(t, ":8080", cfg.Api.Listen)
	require.Equal(t, dir, cfg.ConfigPath)

	require.Equal(t, authority, cfg.Bridge.AuthorityIdentity())
	require.Equal(t, gatewayID, cfg.Inbound.GatewayIdentity())
	require.Equal(t, tss, cfg.Inbound.TSSIdentity())
}

func TestReadEnvOverrides(t *testing.T) {
	dir := writeConfig(t, validConfig(""))
	t.Setenv("BRIDGE_BRIDGE_CODEC_MODE", "typed")
	t.Setenv("BRIDGE_DATABASE_URL", "postgres://bridge@localhost/bridge")
	cfg, err := config.Read(viper.New(), dir)
	require.NoError(t, err)
	require.Equal(t, "typed", cfg.Bridge.CodecMode)
	require.Equal(t, "postgres://bridge@localhost/bridge", cfg.Database.URL)
}

func TestReadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"gateway mode": `, "gateway": {"mode": "carrier-pigeon"}`,
		"evm gateway":  `, "gateway": {"mode": "evm", "gateway": "not-an-address"}`,
		"rabbitmq":     `, "rabbitmq": {"enabled": true}`,
		"telemetry":    `, "telemetry": {"enabled": true}`,
	}
	for name, extra := range cases {
		dir := writeConfig(t, validConfig(extra))
		_, err := config.Read(viper.New(), dir)
		require.Error(t, err, name)
	}

	dir := writeConfig(t, `{"bridge": {"authority": "nope"}}`)
	_, err := config.Read(viper.New(), dir)
	require.Error(t, err)
}

func TestReadMissingFile(t *testing.T) {
	_, err := config.Read(viper.New(), t.TempDir())
	require.Error(t, err)
}
