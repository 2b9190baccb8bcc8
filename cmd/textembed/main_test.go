package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/textembed/internal/embeddings"
)

// executeCommand runs rootCmd with args and stdin and returns what it wrote
// to stdout. Flags are reset first since cobra keeps them between runs.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// executeCommandStdio runs rootCmd with cobra's default writers and returns
// what reached the process stdout and stderr.
func executeCommandStdio(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	resetFlags(rootCmd)

	outFile, errFile := stdioFile(t), stdioFile(t)
	prevOut, prevErr := os.Stdout, os.Stderr
	os.Stdout, os.Stderr = outFile, errFile
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		os.Stdout, os.Stderr = prevOut, prevErr
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})

	err = rootCmd.ExecuteContext(context.Background())
	os.Stdout, os.Stderr = prevOut, prevErr
	return readStdioFile(t, outFile), readStdioFile(t, errFile), err
}

func stdioFile(t *testing.T) *os.File {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "stdio")
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func readStdioFile(t *testing.T, f *os.File) string {
	t.Helper()
	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	return string(data)
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// setupTestHome points HOME at a temp dir, clears embedding env vars and
// returns the config directory.
func setupTestHome(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("ONNX_PATH", "")
	for _, key := range []string{
		"EMBEDDINGS_PROVIDER", "EMBEDDINGS_MODEL", "EMBEDDINGS_DIM",
		"EMBEDDINGS_CACHE_DIR", "EMBEDDINGS_ONNX_VERSION", "LOGGING_LEVEL",
		"LOGGING_FORMAT", "TELEMETRY_ENABLED",
	} {
		if _, ok := os.LookupEnv(key); ok {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}

	dir := filepath.Join(home, ".config", "textembed")
	require.NoError(t, os.MkdirAll(dir, 0700))
	return dir
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// stubLoader swaps modelLoader for the duration of the test and reports the
// runtime as installed.
func stubLoader(t *testing.T, loader embeddings.ModelLoader) {
	t.Helper()
	prev := modelLoader
	modelLoader = loader
	t.Cleanup(func() { modelLoader = prev })
	stubCheck(t, nil)
}

// stubCheck makes the runtime check return err.
func stubCheck(t *testing.T, err error) {
	t.Helper()
	prev := checkRuntime
	checkRuntime = func() error { return err }
	t.Cleanup(func() { checkRuntime = prev })
}

type stubModel struct {
	dim    int
	closed bool
}

func (m *stubModel) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, m.dim)
		out[i][0] = float32(len(texts[i]))
	}
	return out, nil
}

func (m *stubModel) Dimension() int { return m.dim }

func (m *stubModel) Close() error {
	m.closed = true
	return nil
}

func TestRootCmd_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"embed", "prefetch", "init", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestVersionCmd(t *testing.T) {
	out, err := executeCommand(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:    dev")
	assert.Contains(t, out, "Commit:     unknown")
}
