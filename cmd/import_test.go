package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportFixtures(t *testing.T) {
	c := testConfig(t)
	writeFixtures(t, c.Data.Folder, 3)

	st, err := initStore(context.Background())
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	n, err := importFixtures(context.Background(), st, c.Data.Folder, 0, false)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	docs, err := st.SampleDocuments(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "# Invoice", docs[0].TrueMarkdownOutput)
	assert.Equal(t, map[string]any{"total": float64(42)}, docs[0].TrueJSONOutput)
}

func TestImportFixtures_Limit(t *testing.T) {
	c := testConfig(t)
	writeFixtures(t, c.Data.Folder, 3)

	st, err := initStore(context.Background())
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	n, err := importFixtures(context.Background(), st, c.Data.Folder, 1, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestImportFixtures_MissingFolder(t *testing.T) {
	testConfig(t)

	st, err := initStore(context.Background())
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	_, err = importFixtures(context.Background(), st, filepath.Join(t.TempDir(), "nope"), 0, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import: load fixtures")
}

func TestImportFixtures_StrictRejectsSchemaMismatch(t *testing.T) {
	c := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(c.Data.Folder, "page.png"), []byte{0x89, 'P', 'N', 'G'}, 0o644))
	line := `{"file_name":"page.png","json_schema":"{\"type\":\"object\",\"properties\":{\"total\":{\"type\":\"number\"}}}","true_json_output":"{\"total\":\"n/a\"}"}`
	require.NoError(t, os.WriteFile(filepath.Join(c.Data.Folder, "bad.jsonl"), []byte(line+"\n"), 0o644))

	st, err := initStore(context.Background())
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	_, err = importFixtures(context.Background(), st, c.Data.Folder, 0, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import: record 0")

	n, err := importFixtures(context.Background(), st, c.Data.Folder, 0, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestImportCmd_RunE_DefaultsToDataFolder(t *testing.T) {
	c := testConfig(t)
	writeFixtures(t, c.Data.Folder, 2)

	importCmd.SetContext(context.Background())
	defer importCmd.SetContext(context.TODO())

	require.NoError(t, importCmd.RunE(importCmd, nil))
}

func TestInitStore_UnsupportedDriver(t *testing.T) {
	c := testConfig(t)
	c.Store.Driver = "mysql"

	_, err := initStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}
