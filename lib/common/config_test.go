package common

import (
	"testing"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Workers:       4,
		Capacity:      1024,
		Inserts:       2048,
		KeySpread:     64,
		QueueCapacity: 128,
		Cycles:        2,
		Allocator:     "persistent",
		LogLevel:      "info",
	}
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	c := validConfig()
	c.Workers = -1
	require.Error(t, c.Validate())

	c = validConfig()
	c.KeySpread = 0
	require.Error(t, c.Validate())

	c = validConfig()
	c.QueueCapacity = 0
	require.Error(t, c.Validate())

	c = validConfig()
	c.Allocator = "stack"
	require.Error(t, c.Validate())
}

func TestConfigString(t *testing.T) {
	c := validConfig()
	c.Allocator = "temp"
	c.ArenaBytes = 4096
	s := c.String()
	require.Contains(t, s, "WORKLOAD")
	require.Contains(t, s, "Arena Budget")
	require.Contains(t, s, "4 KB")
}

func TestParseLogLevel(t *testing.T) {
	lvl, err := ParseLogLevel("WARN")
	require.NoError(t, err)
	require.Equal(t, logger.WARNING, lvl)

	_, err = ParseLogLevel("verbose")
	require.Error(t, err)

	require.NoError(t, InitLoggers("debug"))
	require.Error(t, InitLoggers("nope"))
}
