package servo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	fn := filepath.Join(t.TempDir(), "bus.yaml")
	require.NoError(t, os.WriteFile(fn, []byte(content), 0644))
	return fn
}

func TestLoadConfig(t *testing.T) {
	conf, err := LoadConfig(writeFile(t, `
port: /dev/ttyUSB0
read-timeout: 250ms
power-on-enter: true
retries: 1
`))
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyUSB0", conf.Port)
	require.Equal(t, 250*time.Millisecond, conf.ReadTimeout)
	require.True(t, conf.PowerOnEnter)
	require.Equal(t, 1, conf.Retries)
	require.Equal(t, defaultConfig.BaudRate, conf.BaudRate)
	require.True(t, conf.DiscardEcho)
	require.NoError(t, conf.Validate())

	opts := conf.Options()
	require.Equal(t, 1, opts.Retries)
	require.True(t, opts.VerifyChecksum)
}

func TestLoadConfigUnknownField(t *testing.T) {
	_, err := LoadConfig(writeFile(t, "baud: 9600\n"))
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Config)
	}{
		{"no port", func(c *Config) { c.Port = "" }},
		{"baud rate", func(c *Config) { c.BaudRate = 0 }},
		{"read timeout", func(c *Config) { c.ReadTimeout = 0 }},
		{"retries", func(c *Config) { c.Retries = -1 }},
		{"noise limit", func(c *Config) { c.NoiseLimit = -1 }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf := NewConfig()
			conf.Port = "/dev/ttyUSB0"
			require.NoError(t, conf.Validate())
			tc.modify(conf)
			require.Error(t, conf.Validate())
		})
	}
}
