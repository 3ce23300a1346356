package config

import (
	"os"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestDefaultConfig(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	is.Equal(cfg.Teams.DefaultMaxMembers, 5)
	is.Equal(cfg.Store.Timeout, 5*time.Second)
	is.Equal(cfg.DB.Driver, "sqlite")
}

func TestWriteAndParseConfig(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	cfg.DataPath = t.TempDir()
	cfg.Teams.DefaultMaxMembers = 7
	cfg.Store.Timeout = 2 * time.Second
	is.NoErr(cfg.WriteConfig())
	is.True(cfg.Exist())

	parsed := &Config{DataPath: cfg.DataPath}
	is.NoErr(parsed.ParseFile())
	is.Equal(parsed.Teams.DefaultMaxMembers, 7)
	is.Equal(parsed.Store.Timeout, 2*time.Second)
	is.Equal(parsed.HTTP.CORS.AllowedMethods, cfg.HTTP.CORS.AllowedMethods)
	is.Equal(parsed.Auth.Issuer, "http://localhost:8080")
}

func TestValidateSqliteDataSource(t *testing.T) {
	is := is.New(t)
	td := t.TempDir()
	cfg := DefaultConfig()
	cfg.DataPath = td
	is.NoErr(cfg.Validate())
	is.Equal(cfg.DB.DataSource, td+"/hackteam.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
}

func TestValidateTeams(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	cfg.DataPath = t.TempDir()
	cfg.Teams.DefaultMaxMembers = 0
	is.True(cfg.Validate() != nil)

	cfg.Teams.DefaultMaxMembers = 2
	cfg.Teams.MaxRetries = -1
	is.True(cfg.Validate() != nil)
}

func TestCustomConfigLocation(t *testing.T) {
	is := is.New(t)
	td := t.TempDir()
	t.Cleanup(func() {
		is.NoErr(os.Unsetenv("HACKTEAM_CONFIG_LOCATION"))
		is.NoErr(os.Unsetenv("HACKTEAM_DATA_PATH"))
	})

	// Data comes from the custom file location, and not from the data dir.
	is.NoErr(os.Setenv("HACKTEAM_CONFIG_LOCATION", "testdata/config.yaml"))
	is.NoErr(os.Setenv("HACKTEAM_DATA_PATH", td))
	cfg := DefaultConfig()
	is.NoErr(cfg.Parse())
	is.Equal(cfg.Name, "Test server name")
	is.Equal(cfg.Teams.DefaultMaxMembers, 4)
	is.Equal(cfg.Teams.MaxRetries, 3)

	is.NoErr(os.Unsetenv("HACKTEAM_CONFIG_LOCATION"))
	cfg = DefaultConfig()
	is.Equal(cfg.Name, "Hackteam")

	is.NoErr(os.Setenv("HACKTEAM_CONFIG_LOCATION", "testdata/config_nonexistent.yaml"))
	cfg = DefaultConfig()
	is.Equal(cfg.Name, "Hackteam")
}

func TestParseEnvTeams(t *testing.T) {
	is := is.New(t)
	is.NoErr(os.Setenv("HACKTEAM_TEAMS_DEFAULT_MAX_MEMBERS", "3"))
	is.NoErr(os.Setenv("HACKTEAM_STORE_TIMEOUT", "750ms"))
	t.Cleanup(func() {
		is.NoErr(os.Unsetenv("HACKTEAM_TEAMS_DEFAULT_MAX_MEMBERS"))
		is.NoErr(os.Unsetenv("HACKTEAM_STORE_TIMEOUT"))
	})
	cfg := DefaultConfig()
	is.NoErr(cfg.ParseEnv())
	is.Equal(cfg.Teams.DefaultMaxMembers, 3)
	is.Equal(cfg.Store.Timeout, 750*time.Millisecond)
}

func TestParseMultipleOrigins(t *testing.T) {
	is := is.New(t)
	is.NoErr(os.Setenv("HACKTEAM_HTTP_CORS_ALLOWED_ORIGINS", "http://example.com,https://example.com"))
	t.Cleanup(func() {
		is.NoErr(os.Unsetenv("HACKTEAM_HTTP_CORS_ALLOWED_ORIGINS"))
	})
	cfg := DefaultConfig()
	is.NoErr(cfg.ParseEnv())
	is.Equal(cfg.HTTP.CORS.AllowedOrigins, []string{
		"http://localhost:3000",
		"http://example.com",
		"https://example.com",
	})
}

func TestEnviron(t *testing.T) {
	is := is.New(t)
	var nilCfg *Config
	is.Equal(len(nilCfg.Environ()), 0)
	envs := DefaultConfig().Environ()
	is.True(len(envs) > 0)
	for _, e := range envs {
		is.True(len(e) > len("HACKTEAM_"))
		is.Equal(e[:len("HACKTEAM_")], "HACKTEAM_")
	}
}
