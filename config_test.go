package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	config, err := LoadConfig(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9186", config.RestServerURI)
	assert.Equal(t, "info", config.LogLevel)
	assert.Equal(t, 30*time.Second, config.RequestTimeout)
	assert.False(t, filepath.IsAbs(configDir), "configDir is relative to home")
	assert.True(t, filepath.IsAbs(config.SessionFile), "~ is expanded")
	assert.Equal(t, 1, config.submissionPluginIndex())
	require.NoError(t, config.validate())
}

func TestLoadConfig_FileEnvAndFlags(t *testing.T) {
	path := writeConfig(t, `
rest_server_uri: http://from-file
user: filer
log_level: debug
request_timeout: 5s
plugins:
  - id: submit-job-v2
    title: Submit
  - id: marketplace
  - id: submit-job-v2
    title: Submit again
`)
	t.Setenv("PAI_USER", "from-env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addConfigFlags(flags)
	require.NoError(t, flags.Parse([]string{"--log-level", "warn", "--advanced"}))

	v := viper.New()
	require.NoError(t, bindFlags(v, flags))
	config, err := LoadConfig(v, path)
	require.NoError(t, err)

	assert.Equal(t, "http://from-file", config.RestServerURI)
	assert.Equal(t, "from-env", config.User)
	assert.Equal(t, "warn", config.LogLevel)
	assert.True(t, config.Advanced)
	assert.Equal(t, 5*time.Second, config.RequestTimeout)
	require.Len(t, config.Plugins, 3)
	assert.Equal(t, 2, config.submissionPluginIndex(), "the last matching plugin wins")
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestConfig_SubmissionPluginMissing(t *testing.T) {
	config := Config{Plugins: []PluginConfig{{ID: "marketplace"}}}
	assert.Equal(t, -1, config.submissionPluginIndex())
}

func TestConfig_WithSession(t *testing.T) {
	session := Session{RestServerURI: "http://session", User: "alice", Token: "tok"}

	merged := Config{RestServerURI: "http://config"}.withSession(session)
	assert.Equal(t, "tok", merged.Token)
	assert.Equal(t, "alice", merged.User)
	assert.Equal(t, "http://session", merged.RestServerURI)

	explicit := Config{RestServerURI: "http://config", User: "bob", Token: "flag"}.withSession(session)
	assert.Equal(t, "flag", explicit.Token)
	assert.Equal(t, "bob", explicit.User)
	assert.Equal(t, "http://config", explicit.RestServerURI)
}

func TestConfig_Validate(t *testing.T) {
	assert.Error(t, Config{LogLevel: "info"}.validate())
	assert.Error(t, Config{RestServerURI: "http://x", LogLevel: "loud"}.validate())
	assert.NoError(t, Config{RestServerURI: "http://x", LogLevel: "debug"}.validate())
}
