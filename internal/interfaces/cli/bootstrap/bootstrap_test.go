package bootstrap

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapEnvToGinMode(t *testing.T) {
	cases := map[string]string{
		"production":  "release",
		"prod":        "release",
		"development": "debug",
		"test":        "test",
		"release":     "release",
		"staging":     "debug",
	}
	for env, mode := range cases {
		assert.Equal(t, mode, MapEnvToGinMode(env), env)
	}
}

func TestOptionsFlagsAndEnvironment(t *testing.T) {
	var opts Options
	cmd := &cobra.Command{Use: "probe", RunE: func(*cobra.Command, []string) error { return nil }}
	opts.AddFlags(cmd)
	cmd.SetArgs([]string{"-e", "production", "--config", "/etc/cryptbill.yaml"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, "/etc/cryptbill.yaml", opts.ConfigPath)
	t.Setenv("ENV", "")
	assert.Equal(t, "production", opts.Environment())

	t.Setenv("ENV", "test")
	assert.Equal(t, "test", opts.Environment())
}

func TestInitWithDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENV", "")

	cfg, log, err := Init(&Options{Env: "test"})
	require.NoError(t, err)
	assert.NotNil(t, log)
	assert.Equal(t, "test", cfg.Server.Mode)
}
