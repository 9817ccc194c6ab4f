package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalProviderSave(t *testing.T) {
	src := filepath.Join(t.TempDir(), "report_001.csv")
	require.NoError(t, os.WriteFile(src, []byte("id,name\n1,alice\n"), 0644))

	base := t.TempDir()
	p := NewLocalProvider(base, nil)

	require.NoError(t, p.Save(context.Background(), "exports/report_001.csv", src))

	data, err := os.ReadFile(filepath.Join(base, "exports", "report_001.csv"))
	require.NoError(t, err)
	assert.Equal(t, "id,name\n1,alice\n", string(data))
}

func TestLocalProviderSaveMissingSource(t *testing.T) {
	p := NewLocalProvider(t.TempDir(), nil)
	err := p.Save(context.Background(), "report.csv", filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
