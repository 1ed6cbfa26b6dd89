package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/adapters/driving/cli"
)

func setupEnv(t *testing.T) (configPath, docsDir string) {
	t.Helper()
	dir := t.TempDir()
	docsDir = filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(docsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(docsDir, "notes.md"), []byte("# Notes\n\nhello"), 0o600))

	t.Setenv("DOCCHAT_DOCUMENTS_DIR", docsDir)
	t.Setenv("VECTOR_STORE_PATH", filepath.Join(dir, "store"))
	t.Setenv("DOCCHAT_INDEX_BACKEND", "sqlite")
	return filepath.Join(dir, "docchat.toml"), docsDir
}

func TestBootstrap_Settings(t *testing.T) {
	configPath, _ := setupEnv(t)

	svc, err := bootstrap(context.Background(), cli.Options{ConfigPath: configPath, Need: cli.NeedSettings})
	require.NoError(t, err)

	require.NotNil(t, svc.Settings)
	assert.Equal(t, configPath, svc.Settings.Path())
	assert.Nil(t, svc.Documents)
	assert.Nil(t, svc.Chat)
	assert.Nil(t, svc.Close)
}

func TestBootstrap_NoConfigFile(t *testing.T) {
	_, docsDir := setupEnv(t)
	wd := t.TempDir()
	t.Chdir(wd)

	svc, err := bootstrap(context.Background(), cli.Options{ConfigPath: noConfig, Need: cli.NeedSettings})
	require.NoError(t, err)

	assert.Equal(t, ":memory:", svc.Settings.Path())
	settings, err := svc.Settings.Get()
	require.NoError(t, err)
	assert.Equal(t, docsDir, settings.DocumentsDir)

	require.NoError(t, svc.Settings.Set("chunking.size", "700"))
	entries, err := os.ReadDir(wd)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBootstrap_Documents(t *testing.T) {
	configPath, docsDir := setupEnv(t)

	svc, err := bootstrap(context.Background(), cli.Options{ConfigPath: configPath, Need: cli.NeedDocuments})
	require.NoError(t, err)

	require.NotNil(t, svc.Documents)
	assert.Equal(t, docsDir, svc.Documents.Dir())
	docs, err := svc.Documents.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "notes.md", docs[0].Name)
	assert.Nil(t, svc.Diagnostics)
}

func TestBootstrap_Diagnostics(t *testing.T) {
	configPath, _ := setupEnv(t)

	svc, err := bootstrap(context.Background(), cli.Options{ConfigPath: configPath, Need: cli.NeedDiagnostics})
	require.NoError(t, err)
	require.NotNil(t, svc.Diagnostics)
	require.NotNil(t, svc.Close)
	defer svc.Close() //nolint:errcheck

	results := svc.Diagnostics.Check(context.Background())
	require.NotEmpty(t, results)

	byName := map[string]bool{}
	for _, r := range results {
		byName[r.Name] = r.OK
	}
	assert.True(t, byName["documents directory"])
	assert.True(t, byName["index store"])
	assert.Nil(t, svc.Chat)
}

func TestBootstrap_InvalidSettings(t *testing.T) {
	configPath, _ := setupEnv(t)
	t.Setenv("CHUNK_SIZE", "big")

	_, err := bootstrap(context.Background(), cli.Options{ConfigPath: configPath, Need: cli.NeedDocuments})
	assert.Error(t, err)
}

func TestClosers_ReverseOrder(t *testing.T) {
	var order []int
	var c closers
	c.add(func() error { order = append(order, 1); return nil })
	c.add(func() error { order = append(order, 2); return nil })

	require.NoError(t, c.close())
	assert.Equal(t, []int{2, 1}, order)
}
