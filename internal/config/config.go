package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"
)

// Params holds the connection parameters resolved for one environment
// and vendor. SID and ServiceName are Oracle-only; exactly one of them
// is expected to be set for Oracle sections.
type Params struct {
	Host        string
	Port        string
	User        string
	Password    string
	DBName      string
	SID         string
	ServiceName string
}

// Config reads database connection parameters from an ini file.
// Sections are named "{environment}_{vendor}", e.g. "prod_postgres" or
// "test_oracle". Values may reference environment variables with the
// usual ${VAR} syntax and are expanded at lookup time, so secrets can
// live in the process environment (or a .env file) instead of the ini.
type Config struct {
	path string
	file *ini.File
}

// Load parses the ini file at path.
func Load(path string) (*Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return &Config{path: path, file: f}, nil
}

// Path returns the file path the config was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Params resolves the connection parameters for the given environment
// and vendor. A missing section is a configuration error.
func (c *Config) Params(environment, vendor string) (Params, error) {
	name := fmt.Sprintf("%s_%s", environment, vendor)
	sec, err := c.file.GetSection(name)
	if err != nil {
		return Params{}, fmt.Errorf("config section %q not found in %s: %w", name, c.path, err)
	}
	get := func(key string) string {
		return os.ExpandEnv(sec.Key(key).String())
	}
	return Params{
		Host:        get("host"),
		Port:        get("port"),
		User:        get("user"),
		Password:    get("password"),
		DBName:      get("dbname"),
		SID:         get("sid"),
		ServiceName: get("service_name"),
	}, nil
}

// HasSection reports whether the config defines the given
// environment/vendor pair.
func (c *Config) HasSection(environment, vendor string) bool {
	return c.file.HasSection(fmt.Sprintf("%s_%s", environment, vendor))
}

// DefaultPath returns the config path from SQLEXEC_CONFIG, falling back
// to ./config.ini.
func DefaultPath() string {
	return getEnv("SQLEXEC_CONFIG", "config.ini")
}

// WriteTemplate writes a sample config file with one section per
// supported vendor so operators can fill in their environments. The
// parent directory is created if needed. Refuses to overwrite an
// existing file.
func WriteTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	f := ini.Empty()
	pg, _ := f.NewSection("test_postgres")
	pg.NewKey("host", "localhost")
	pg.NewKey("port", "5432")
	pg.NewKey("user", "postgres")
	pg.NewKey("password", "${POSTGRES_PASSWORD}")
	pg.NewKey("dbname", "postgres")

	ora, _ := f.NewSection("test_oracle")
	ora.NewKey("host", "localhost")
	ora.NewKey("port", "1521")
	ora.NewKey("user", "system")
	ora.NewKey("password", "${ORACLE_PASSWORD}")
	ora.NewKey("service_name", "FREEPDB1")

	my, _ := f.NewSection("test_mysql")
	my.NewKey("host", "localhost")
	my.NewKey("port", "3306")
	my.NewKey("user", "root")
	my.NewKey("password", "${MYSQL_PASSWORD}")
	my.NewKey("dbname", "my_app")

	if err := f.SaveTo(path); err != nil {
		return fmt.Errorf("failed to write config template %s: %w", path, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
