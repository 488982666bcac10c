package testutils

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var multiSpaceRegex = regexp.MustCompile(" +")

// Target is the platform API a runview process is pointed at.
type Target struct {
	APIURL string
	Token  string
	// PollInterval of the watched runs, zero uses the runview default.
	PollInterval time.Duration
	// ConfigFile is the runview config file. When empty a missing file is used so the
	// user config is never read.
	ConfigFile string
}

// Env returns the runview environment for the target. Empty fields are left to the config file.
func (t Target) Env() []string {
	configFile := t.ConfigFile
	if configFile == "" {
		configFile = filepath.Join(os.TempDir(), "runview-integration-missing.yaml")
	}

	env := []string{
		"RUNVIEW_NO_LOG=true",
		"RUNVIEW_CONFIG=" + configFile,
	}
	if t.APIURL != "" {
		env = append(env, "RUNVIEW_API_URL="+t.APIURL)
	}
	if t.Token != "" {
		env = append(env, "RUNVIEW_TOKEN="+t.Token)
	}
	if t.PollInterval > 0 {
		env = append(env, "RUNVIEW_POLL_INTERVAL="+t.PollInterval.String())
	}
	return env
}

// WriteConfig writes a runview config file for the target in dir and returns its path.
func WriteConfig(dir string, t Target) (string, error) {
	f := struct {
		APIURL       string `yaml:"api_url"`
		Token        string `yaml:"token,omitempty"`
		PollInterval string `yaml:"poll_interval,omitempty"`
	}{
		APIURL: t.APIURL,
		Token:  t.Token,
	}
	if t.PollInterval > 0 {
		f.PollInterval = t.PollInterval.String()
	}

	data, err := yaml.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("could not marshal config: %w", err)
	}

	path := filepath.Join(dir, "runview.yaml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("could not write config: %w", err)
	}
	return path, nil
}

// RunRunview executes a runview command against the target with the given arguments string (split by spaces).
// Use RunRunviewArgs when arguments contain spaces that should be preserved.
func RunRunview(ctx context.Context, binary string, target Target, cmdArgs string) (stdout, stderr []byte, err error) {
	// Sanitize command.
	cmdArgs = strings.TrimSpace(cmdArgs)
	cmdArgs = multiSpaceRegex.ReplaceAllString(cmdArgs, " ")

	// Split into args.
	var args []string
	if cmdArgs != "" {
		args = strings.Split(cmdArgs, " ")
	}

	return RunRunviewArgs(ctx, binary, target, args)
}

// RunRunviewArgs executes a runview command against the target with pre-split arguments.
func RunRunviewArgs(ctx context.Context, binary string, target Target, args []string) (stdout, stderr []byte, err error) {
	var outData, errData bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = &outData
	cmd.Stderr = &errData
	cmd.Env = runviewEnv(target)

	err = cmd.Run()

	return outData.Bytes(), errData.Bytes(), err
}

// runviewEnv drops the RUNVIEW_ variables of the caller environment, only the target ones are set.
func runviewEnv(target Target) []string {
	env := []string{}
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "RUNVIEW_") {
			continue
		}
		env = append(env, kv)
	}
	return append(env, target.Env()...)
}
