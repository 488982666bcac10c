package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/runview/internal/config"
)

func TestRootCommandConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(cfgPath, []byte(`api_url: https://agents.example.com
token: from-file
poll_interval: 3s
`), 0o600)
	require.NoError(t, err)

	tests := map[string]struct {
		root   RootCommand
		expCfg config.Config
		expErr bool
	}{
		"A missing config file should use the defaults.": {
			root:   RootCommand{ConfigPath: filepath.Join(dir, "missing.yaml")},
			expCfg: config.Default(),
		},

		"The config file values should be used.": {
			root: RootCommand{ConfigPath: cfgPath},
			expCfg: config.Config{
				APIURL:       "https://agents.example.com",
				Token:        "from-file",
				PollInterval: 3 * time.Second,
				Timeout:      config.DefaultTimeout,
			},
		},

		"Flags should override the config file values.": {
			root: RootCommand{
				ConfigPath:   cfgPath,
				APIURL:       "http://127.0.0.1:9000",
				Token:        "from-flag",
				Cookie:       "session=abc",
				PollInterval: 500 * time.Millisecond,
				Timeout:      time.Minute,
			},
			expCfg: config.Config{
				APIURL:       "http://127.0.0.1:9000",
				Token:        "from-flag",
				Cookie:       "session=abc",
				PollInterval: 500 * time.Millisecond,
				Timeout:      time.Minute,
			},
		},

		"An invalid config file should fail.": {
			root: RootCommand{ConfigPath: func() string {
				p := filepath.Join(dir, "invalid.yaml")
				_ = os.WriteFile(p, []byte("poll_interval: never\n"), 0o600)
				return p
			}()},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			cfg, err := test.root.Config()

			if test.expErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, test.expCfg, cfg)
		})
	}
}
