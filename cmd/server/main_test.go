package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/towerduel/internal/config"
	"github.com/mcoot/towerduel/internal/testutil"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// Keep the developer's .env and environment out of the test
	for _, key := range []string{"STORAGE_TYPE", "REDIS_URL", "TOWERDUEL_LOG_LEVEL", "TOWERDUEL_HAND_SIZE"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	args = append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env"), "--log-level", "error"}, args...)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCatalogValidateBuiltIn(t *testing.T) {
	out, err := runCmd(t, "catalog", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "catalog ok: 27 units")
}

func TestCatalogValidateRejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "units.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"Ghost","emoji":"👻","cost":1,"health":0,"power":1,"size":1,"speed":1,"attack_type":"Single"}]`), 0o600))

	_, err := runCmd(t, "catalog", "validate", path)
	assert.Error(t, err)
}

func TestCatalogPublishToRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	out, err := runCmd(t, "--storage", "redis", "--redis-url", "redis://"+mr.Addr(), "catalog", "publish")
	require.NoError(t, err)
	assert.Contains(t, out, "published 27 units to redis storage")
	assert.True(t, mr.Exists("towerduel:catalog"))
}

func TestFlagsAreValidated(t *testing.T) {
	_, err := runCmd(t, "--storage", "sqlite", "catalog", "publish")
	assert.ErrorContains(t, err, "invalid configuration")

	_, err = runCmd(t, "--storage", "redis", "catalog", "publish")
	assert.ErrorContains(t, err, "REDIS_URL")
}

func TestFactoryConfigForRedis(t *testing.T) {
	cfg := config.Config{
		StorageType:  config.StorageRedis,
		RedisURL:     "redis://cache:6379/2",
		HistoryLimit: 50,
		HandSize:     4,
		Catalog:      config.CatalogFromStorage,
	}

	fc := factoryConfig(cfg, testutil.NopLogger())

	require.NotNil(t, fc.RedisConfig)
	assert.Equal(t, "redis://cache:6379/2", fc.RedisConfig.URL)
	assert.Equal(t, 50, fc.RedisConfig.HistoryLimit)
	assert.Equal(t, 4, fc.HandSize)
	assert.Equal(t, "storage", fc.CatalogSource)
}

func TestFactoryConfigForMemory(t *testing.T) {
	fc := factoryConfig(config.Config{StorageType: config.StorageMemory, HistoryLimit: 10}, testutil.NopLogger())

	assert.Nil(t, fc.RedisConfig)
	assert.Equal(t, 10, fc.HistoryLimit)
}
