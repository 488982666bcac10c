package config_test

import (
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/runview/internal/config"
)

func TestLoaderLoad(t *testing.T) {
	tests := map[string]struct {
		fs     fstest.MapFS
		path   string
		expCfg config.Config
		expErr bool
	}{
		"A missing config file should return the defaults.": {
			fs:     fstest.MapFS{},
			path:   "config.yaml",
			expCfg: config.Default(),
		},

		"An empty config file should return the defaults.": {
			fs: fstest.MapFS{
				"config.yaml": &fstest.MapFile{Data: []byte("---\n")},
			},
			path:   "config.yaml",
			expCfg: config.Default(),
		},

		"A complete config file should be loaded.": {
			fs: fstest.MapFS{
				"config.yaml": &fstest.MapFile{Data: []byte(`api_url: https://agents.example.com/
token: s3cr3t
cookie: session=abc
poll_interval: 2s
timeout: 1m
`)},
			},
			path: "config.yaml",
			expCfg: config.Config{
				APIURL:       "https://agents.example.com",
				Token:        "s3cr3t",
				Cookie:       "session=abc",
				PollInterval: 2 * time.Second,
				Timeout:      time.Minute,
			},
		},

		"A partial config file should keep the defaults for the missing values.": {
			fs: fstest.MapFS{
				"runview/config.yaml": &fstest.MapFile{Data: []byte("token: s3cr3t\n")},
			},
			path: "runview/config.yaml",
			expCfg: config.Config{
				APIURL:       config.DefaultAPIURL,
				Token:        "s3cr3t",
				PollInterval: config.DefaultPollInterval,
				Timeout:      config.DefaultTimeout,
			},
		},

		"Invalid YAML should fail.": {
			fs: fstest.MapFS{
				"config.yaml": &fstest.MapFile{Data: []byte("api_url: [\n")},
			},
			path:   "config.yaml",
			expErr: true,
		},

		"An invalid poll interval format should fail.": {
			fs: fstest.MapFS{
				"config.yaml": &fstest.MapFile{Data: []byte("poll_interval: often\n")},
			},
			path:   "config.yaml",
			expErr: true,
		},

		"A too small poll interval should fail.": {
			fs: fstest.MapFS{
				"config.yaml": &fstest.MapFile{Data: []byte("poll_interval: 10ms\n")},
			},
			path:   "config.yaml",
			expErr: true,
		},

		"A negative timeout should fail.": {
			fs: fstest.MapFS{
				"config.yaml": &fstest.MapFile{Data: []byte("timeout: -1s\n")},
			},
			path:   "config.yaml",
			expErr: true,
		},

		"An API URL without http scheme should fail.": {
			fs: fstest.MapFS{
				"config.yaml": &fstest.MapFile{Data: []byte("api_url: ftp://agents.example.com\n")},
			},
			path:   "config.yaml",
			expErr: true,
		},

		"An API URL without host should fail.": {
			fs: fstest.MapFS{
				"config.yaml": &fstest.MapFile{Data: []byte("api_url: http://\n")},
			},
			path:   "config.yaml",
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			cfg, err := config.NewLoader(test.fs).Load(test.path)
			if test.expErr {
				assert.Error(err)
				return
			}
			require.NoError(t, err)
			assert.Equal(test.expCfg, cfg)
		})
	}
}

func TestDefaultPath(t *testing.T) {
	assert.Contains(t, config.DefaultPath(), ".runview")
	assert.Contains(t, config.DefaultPath(), "config.yaml")
}
