package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/harmonize/internal/cli/config"
)

// runRoot executes the root command in an empty working directory.
func runRoot(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	t.Cleanup(func() { cfgFile = "" })

	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func emptyWorkdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	config.ResetConfig()
	return dir
}

func TestNewRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	want := []string{"version", "ui", "transform", "generate", "samples", "config", "doctor", "completion"}
	for _, name := range want {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
	for _, flag := range []string{"config", "service-url", "timeout", "verbose", "output"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestRoot_Version(t *testing.T) {
	emptyWorkdir(t)

	out, _, err := runRoot(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "harmonize v"+Version)
}

func TestRoot_ConfigPrecedence(t *testing.T) {
	dir := emptyWorkdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "harmonize.yaml"),
		[]byte("service:\n  base_url: http://from-file:5000\nui:\n  port: 9001\n"), 0600))

	out, stderr, err := runRoot(t, "config", "-v", "-o", "json", "--service-url", "http://from-flag:5000")
	require.NoError(t, err)

	assert.Contains(t, out, "base_url: http://from-flag:5000")
	assert.Contains(t, out, "port: 9001")
	assert.Contains(t, stderr, "using config file")
}

func TestRoot_ExplicitConfigFile(t *testing.T) {
	dir := emptyWorkdir(t)
	path := filepath.Join(dir, "other.yaml")
	require.NoError(t, os.WriteFile(path, []byte("generation:\n  code_language: sql\n"), 0600))

	out, _, err := runRoot(t, "config", "--config", path, "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "code_language: sql")
}

func TestRoot_InvalidConfig(t *testing.T) {
	emptyWorkdir(t)
	t.Setenv("HARMONIZE_OUTPUT", "xml")

	_, _, err := runRoot(t, "samples")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "output")
}

func TestRoot_CompletionSkipsConfig(t *testing.T) {
	emptyWorkdir(t)
	t.Setenv("HARMONIZE_OUTPUT", "xml")

	out, _, err := runRoot(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "harmonize")
}

func TestRoot_TransformAgainstService(t *testing.T) {
	emptyWorkdir(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transform" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"data": "City,Total\nRio de Janeiro,360\n"})
	}))
	t.Cleanup(srv.Close)

	out, _, err := runRoot(t, "transform", "--sample", "csv", "--service-url", srv.URL, "-o", "json")
	require.NoError(t, err)

	var got struct {
		TransformType string              `json:"transform_type"`
		Records       []map[string]string `json:"records"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "transform1", got.TransformType)
	require.Len(t, got.Records, 1)
	assert.Equal(t, "360", got.Records[0]["Total"])
}
