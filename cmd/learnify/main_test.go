package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestHashKeyCmd(t *testing.T) {
	out, err := runCmd(t, "hash-key", "s3cret")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))

	_, err = runCmd(t, "hash-key")
	assert.Error(t, err)
}

func TestTiersCmd(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "none.env")

	out, err := runCmd(t, "--env-file", missing, "tiers")
	require.NoError(t, err)
	assert.Contains(t, out, "Novice")
	assert.Contains(t, out, "Legend")

	path := filepath.Join(t.TempDir(), "tiers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tiers:\n  - name: Bronze\n    threshold: 0\n  - name: Gold\n    threshold: 9\n"), 0o600))

	out, err = runCmd(t, "tiers", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Gold")
	assert.Contains(t, out, "5", "9 tokens take 5 active days")

	out, err = runCmd(t, "tiers", "--file", path, "--yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: Bronze")

	require.NoError(t, os.WriteFile(path, []byte("tiers: []\n"), 0o600))
	_, err = runCmd(t, "tiers", "--file", path)
	assert.Error(t, err)
}

func TestMigrateCmd_RequiresPostgres(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	_, err := runCmd(t, "--env-file", filepath.Join(t.TempDir(), "none.env"), "migrate", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_DRIVER=postgres")
}
