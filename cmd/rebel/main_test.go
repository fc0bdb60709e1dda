package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runCmd(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "rebel dev\n", out)
}

func TestPlayCommandRunsScript(t *testing.T) {
	t.Setenv("REBEL_GAMBIT", "parity")
	out, err := runCmd(t, "Mon\n1\n1\n1\n1\n1\n", "play")
	require.NoError(t, err)
	assert.Contains(t, out, "VICTORY")
}

func TestPlayCommandEmptyInputIsClean(t *testing.T) {
	_, err := runCmd(t, "", "play")
	require.NoError(t, err)
}

func TestServeRejectsBadConfig(t *testing.T) {
	t.Setenv("DB_DIALECT", "oracle")
	_, err := runCmd(t, "", "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestNewEngineRejectsMissingNarrative(t *testing.T) {
	t.Setenv("REBEL_NARRATIVE_FILE", t.TempDir()+"/missing.yaml")
	_, err := runCmd(t, "", "play")
	require.Error(t, err)
}
