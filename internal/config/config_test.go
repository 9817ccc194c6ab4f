package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAndParams(t *testing.T) {
	path := writeConfig(t, `
[prod_postgres]
host = db.internal
port = 5432
user = reporter
password = s3cret
dbname = sales
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path())

	p, err := cfg.Params("prod", "postgres")
	require.NoError(t, err)
	assert.Equal(t, Params{
		Host:     "db.internal",
		Port:     "5432",
		User:     "reporter",
		Password: "s3cret",
		DBName:   "sales",
	}, p)

	assert.True(t, cfg.HasSection("prod", "postgres"))
	assert.False(t, cfg.HasSection("prod", "oracle"))
}

func TestParamsMissingSection(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[test_mysql]\nhost = localhost\n"))
	require.NoError(t, err)

	_, err = cfg.Params("prod", "postgres")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prod_postgres")
}

func TestParamsExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "from-env")
	cfg, err := Load(writeConfig(t, `
[test_postgres]
host = localhost
password = ${TEST_DB_PASSWORD}
`))
	require.NoError(t, err)

	p, err := cfg.Params("test", "postgres")
	require.NoError(t, err)
	assert.Equal(t, "from-env", p.Password)
}

func TestParamsOracleSection(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[test_oracle]
host = ora.internal
port = 1521
user = system
password = pw
sid = XE
`))
	require.NoError(t, err)

	p, err := cfg.Params("test", "oracle")
	require.NoError(t, err)
	assert.Equal(t, "XE", p.SID)
	assert.Empty(t, p.ServiceName)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.ini"))
	assert.Error(t, err)
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("SQLEXEC_CONFIG", "/etc/sqlexec/config.ini")
	assert.Equal(t, "/etc/sqlexec/config.ini", DefaultPath())
}

func TestWriteTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.ini")
	require.NoError(t, WriteTemplate(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	for _, vendor := range []string{"postgres", "oracle", "mysql"} {
		assert.True(t, cfg.HasSection("test", vendor), vendor)
	}

	assert.Error(t, WriteTemplate(path), "an existing file is never overwritten")
}
