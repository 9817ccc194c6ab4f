package executor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	assert.Equal(t,
		[]string{"SELECT 1", "SELECT 2"},
		SplitStatements("SELECT 1;\nSELECT 2;"))

	// Blank fragments between semicolons are dropped.
	assert.Equal(t,
		[]string{"SELECT 1"},
		SplitStatements(";;  \n SELECT 1 ; \n"))

	assert.Empty(t, SplitStatements("   \n  "))
}

func TestQueriesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.sql")
	require.NoError(t, os.WriteFile(path,
		[]byte("/* NAME first */ SELECT 1;\nSELECT 2;"), 0644))

	queries, err := QueriesFromFile(path)
	require.NoError(t, err)
	require.Len(t, queries, 2)

	q, err := QueryFromFile(path, 1)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 2", q)

	_, err = QueryFromFile(path, 5)
	assert.Error(t, err)

	q, err = QueryFromFileByName(path, "first")
	require.NoError(t, err)
	assert.Contains(t, q, "SELECT 1")

	_, err = QueryFromFileByName(path, "absent")
	assert.Error(t, err)
}

func TestQueriesFromFileNotFound(t *testing.T) {
	_, err := QueriesFromFile(filepath.Join(t.TempDir(), "nope.sql"))
	var notFound *ScriptNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Contains(t, notFound.Path, "nope.sql")
}

func TestSuffixWidth(t *testing.T) {
	assert.Equal(t, 3, suffixWidth(1))
	assert.Equal(t, 3, suffixWidth(999))
	assert.Equal(t, 4, suffixWidth(1000))
}
