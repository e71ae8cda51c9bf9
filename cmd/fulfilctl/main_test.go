package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CONFIG_PATH", filepath.Join(dir, "missing.yaml"))
	t.Setenv("DB_BACKEND", "file")
	t.Setenv("DB_PATH", filepath.Join(dir, "data.json"))
	t.Setenv("R2_ENABLED", "false")
	t.Setenv("KAFKA_ENABLED", "false")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestUsersAddAndList(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "users", "add", "--email", "ops@example.com", "--password", "secret123", "--role", "warehouse")
	require.NoError(t, err)
	assert.Contains(t, out, "ops@example.com")

	_, err = execute(t, "users", "add", "--email", "ops@example.com", "--password", "secret123")
	assert.Error(t, err)

	out, err = execute(t, "users", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "EMAIL")
	assert.Contains(t, out, "ops@example.com")
	assert.Contains(t, out, "warehouse")
}

func TestSeedAndReset(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "seed")
	require.NoError(t, err)

	out, err := execute(t, "users", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "admin@example.com")

	_, err = execute(t, "reset")
	assert.Error(t, err, "未确认时拒绝重置")

	_, err = execute(t, "reset", "--yes")
	require.NoError(t, err)

	out, err = execute(t, "users", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "admin@example.com")
}

func TestTablesCommands(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "tables", "create")
	require.NoError(t, err)
	assert.Contains(t, out, "数据表已创建")

	out, err = execute(t, "tables", "drop")
	require.NoError(t, err)
	assert.Contains(t, out, "数据表已删除")
}

func TestBucketClearRequiresStorage(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "bucket", "clear")
	assert.Error(t, err)
}
