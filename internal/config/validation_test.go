package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs), "expected ValidationErrors, got %v", err)
	fields := make([]string, 0, len(verrs))
	for _, e := range verrs {
		fields = append(fields, e.Field)
	}
	return fields
}

func TestValidator_Valid(t *testing.T) {
	assert.NoError(t, NewValidator().Validate(DefaultConfig()))
}

func TestValidator_Fields(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"non-ascii unary context", func(c *Config) { c.Lexer.UnaryContext = "(×" }, "lexer.unary_context"},
		{"unknown provider", func(c *Config) { c.Dice.Provider = "lava" }, "dice.provider"},
		{"empty sequence", func(c *Config) { c.Dice.Provider = "sequence" }, "dice.sequence"},
		{"negative max count", func(c *Config) { c.Dice.MaxCount = -1 }, "dice.max_count"},
		{"negative max sides", func(c *Config) { c.Dice.MaxSides = -1 }, "dice.max_sides"},
		{"unknown engine", func(c *Config) { c.Functions.Engine = "v8" }, "functions.engine"},
		{"negative script timeout", func(c *Config) { c.Functions.ScriptTimeout = -1 }, "functions.script_timeout"},
		{"bad script name", func(c *Config) {
			c.Functions.Scripts = []ScriptFunction{{Name: "d", Script: "1"}}
		}, "functions.scripts[0].name"},
		{"empty script", func(c *Config) {
			c.Functions.Scripts = []ScriptFunction{{Name: "one", Script: "  "}}
		}, "functions.scripts[0].script"},
		{"missing arg name", func(c *Config) {
			c.Functions.Scripts = []ScriptFunction{{Name: "one", Script: "1", Args: []ScriptArg{{Type: "number"}}}}
		}, "functions.scripts[0].args[0].name"},
		{"duplicate arg", func(c *Config) {
			c.Functions.Scripts = []ScriptFunction{{Name: "two", Script: "a", Args: []ScriptArg{{Name: "a"}, {Name: "a"}}}}
		}, "functions.scripts[0].args[1].name"},
		{"bad arg type", func(c *Config) {
			c.Functions.Scripts = []ScriptFunction{{Name: "one", Script: "a", Args: []ScriptArg{{Name: "a", Type: "string"}}}}
		}, "functions.scripts[0].args[0].type"},
		{"empty address", func(c *Config) { c.Server.Address = "" }, "server.address"},
		{"bad address", func(c *Config) { c.Server.Address = "localhost" }, "server.address"},
		{"bad port", func(c *Config) { c.Server.Address = ":99999" }, "server.address"},
		{"negative read timeout", func(c *Config) { c.Server.ReadTimeout = -1 }, "server.read_timeout"},
		{"negative rate", func(c *Config) { c.Server.RateLimit = -1 }, "server.rate_limit"},
		{"rate without burst", func(c *Config) { c.Server.RateLimit = 1; c.Server.RateBurst = 0 }, "server.rate_burst"},
		{"bad remote url", func(c *Config) { c.Remote.URL = "localhost:8080" }, "remote.url"},
		{"no workers", func(c *Config) { c.Batch.Workers = 0 }, "batch.workers"},
		{"negative cache", func(c *Config) { c.Cache.Size = -5 }, "cache.size"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "text" }, "logging.format"},
		{"bad output", func(c *Config) { c.Logging.Output = "syslog" }, "logging.output"},
		{"file without path", func(c *Config) { c.Logging.Output = "file" }, "logging.file_path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, fieldsOf(t, err), tt.field)
		})
	}
}

func TestValidator_ReportsAll(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Address = ""
	cfg.Batch.Workers = 0
	cfg.Logging.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	assert.ElementsMatch(t, []string{"server.address", "batch.workers", "logging.level"}, fieldsOf(t, err))
	assert.Contains(t, err.Error(), "configuration validation failed")
}

func TestValidator_Addresses(t *testing.T) {
	assert.True(t, isValidAddress(":8080"))
	assert.True(t, isValidAddress("127.0.0.1:8080"))
	assert.True(t, isValidAddress("calc.example.com:80"))
	assert.True(t, isValidAddress("[::1]:8080"))
	assert.False(t, isValidAddress(":"))
	assert.False(t, isValidAddress("-bad-:80"))
}

func TestLoadAndValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(good, []byte("batch:\n  workers: 2\n"), 0644))
	require.NoError(t, os.WriteFile(bad, []byte("batch:\n  workers: 0\n"), 0644))

	cfg, err := LoadAndValidate(good)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Batch.Workers)

	_, err = LoadAndValidate(bad)
	assert.Error(t, err)
}
