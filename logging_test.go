package main

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureLogging_WritesToFile(t *testing.T) {
	defer log.SetOutput(os.Stderr)
	path := filepath.Join(t.TempDir(), "logs", "paitui.log")

	closer, err := configureLogging(Config{LogLevel: "debug", LogFile: path})
	require.NoError(t, err)
	log.WithField("user", "alice").Debug("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=hello")
	assert.Contains(t, string(data), "user=alice")
	assert.Equal(t, log.DebugLevel, log.GetLevel())
}

func TestConfigureLogging_BadLevel(t *testing.T) {
	_, err := configureLogging(Config{LogLevel: "loud"})
	assert.Error(t, err)
}
