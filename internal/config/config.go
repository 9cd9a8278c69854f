package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tariel36/rpncalc/internal/expression"
	"github.com/tariel36/rpncalc/pkg/logger"
)

// DefaultEnvPrefix is prepended to every env tag.
const DefaultEnvPrefix = "RPN_"

// Config represents the complete rpncalc configuration.
type Config struct {
	Lexer     LexerConfig     `yaml:"lexer"`
	Dice      DiceConfig      `yaml:"dice"`
	Functions FunctionsConfig `yaml:"functions"`
	Server    ServerConfig    `yaml:"server"`
	Remote    RemoteConfig    `yaml:"remote"`
	Batch     BatchConfig     `yaml:"batch"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LexerConfig holds tokenizer options.
type LexerConfig struct {
	// UnaryContext lists the characters after which '-' is a sign.
	UnaryContext string `yaml:"unary_context" env:"LEXER_UNARY_CONTEXT"`
}

// DiceConfig selects the dice provider and its limits.
type DiceConfig struct {
	Provider string `yaml:"provider" env:"DICE_PROVIDER"` // pcg, crypto, sequence
	Seed     uint64 `yaml:"seed" env:"DICE_SEED"`
	Sequence []int  `yaml:"sequence" env:"DICE_SEQUENCE"`
	MaxCount int    `yaml:"max_count" env:"DICE_MAX_COUNT"`
	MaxSides int    `yaml:"max_sides" env:"DICE_MAX_SIDES"`
}

// FunctionsConfig controls which functions are registered.
type FunctionsConfig struct {
	Builtins      bool             `yaml:"builtins" env:"FUNCTIONS_BUILTINS"`
	Engine        string           `yaml:"engine" env:"FUNCTIONS_ENGINE"` // goja, otto
	ScriptTimeout time.Duration    `yaml:"script_timeout" env:"FUNCTIONS_SCRIPT_TIMEOUT"`
	Scripts       []ScriptFunction `yaml:"scripts"`
}

// ScriptFunction defines a function implemented in JavaScript.
type ScriptFunction struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Args        []ScriptArg `yaml:"args"`
	Script      string      `yaml:"script"`
}

// ScriptArg is a declared script function argument.
type ScriptArg struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"` // number, integer
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address         string        `yaml:"address" env:"SERVER_ADDRESS"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	EnableCORS      bool          `yaml:"enable_cors" env:"SERVER_ENABLE_CORS"`
	EnableWebSocket bool          `yaml:"enable_websocket" env:"SERVER_ENABLE_WEBSOCKET"`
	EnableMetrics   bool          `yaml:"enable_metrics" env:"SERVER_ENABLE_METRICS"`
	RateLimit       float64       `yaml:"rate_limit" env:"SERVER_RATE_LIMIT"` // requests per second, 0 disables
	RateBurst       int           `yaml:"rate_burst" env:"SERVER_RATE_BURST"`
	BodyLimit       int           `yaml:"body_limit" env:"SERVER_BODY_LIMIT"`
}

// RemoteConfig points the CLI at a running rpncalc server.
type RemoteConfig struct {
	URL     string        `yaml:"url" env:"REMOTE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"REMOTE_TIMEOUT"`
}

// BatchConfig holds batch evaluation defaults.
type BatchConfig struct {
	Workers  int    `yaml:"workers" env:"BATCH_WORKERS"`
	JSONPath string `yaml:"json_path" env:"BATCH_JSON_PATH"`
	Schema   string `yaml:"schema" env:"BATCH_SCHEMA"`
}

// CacheConfig controls the compiled expression cache.
type CacheConfig struct {
	Enabled bool `yaml:"enabled" env:"CACHE_ENABLED"`
	Size    int  `yaml:"size" env:"CACHE_SIZE"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `yaml:"level" env:"LOG_LEVEL"`
	Format     string `yaml:"format" env:"LOG_FORMAT"`
	Output     string `yaml:"output" env:"LOG_OUTPUT"`
	FilePath   string `yaml:"file_path" env:"LOG_FILE_PATH"`
	MaxSize    int    `yaml:"max_size" env:"LOG_MAX_SIZE"`
	MaxBackups int    `yaml:"max_backups" env:"LOG_MAX_BACKUPS"`
	MaxAge     int    `yaml:"max_age" env:"LOG_MAX_AGE"`
}

// Logger converts the section to a logger configuration.
func (c LoggingConfig) Logger() *logger.Config {
	return &logger.Config{
		Level:      c.Level,
		Format:     c.Format,
		Output:     c.Output,
		FilePath:   c.FilePath,
		MaxSize:    c.MaxSize,
		MaxBackups: c.MaxBackups,
		MaxAge:     c.MaxAge,
	}
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Lexer: LexerConfig{
			UnaryContext: expression.DefaultUnaryContext,
		},
		Dice: DiceConfig{
			Provider: "pcg",
			MaxCount: 1000,
			MaxSides: 1_000_000,
		},
		Functions: FunctionsConfig{
			Builtins:      true,
			Engine:        "goja",
			ScriptTimeout: time.Second,
		},
		Server: ServerConfig{
			Address:         ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			EnableWebSocket: true,
			EnableMetrics:   true,
			RateBurst:       20,
			BodyLimit:       1024 * 1024,
		},
		Remote: RemoteConfig{
			Timeout: 10 * time.Second,
		},
		Batch: BatchConfig{
			Workers: 4,
		},
		Cache: CacheConfig{
			Enabled: true,
			Size:    1024,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			Output:     "stderr",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
		},
	}
}

// Loader handles configuration loading from multiple sources.
type Loader struct {
	configPath string
	envPrefix  string
	cmdArgs    map[string]string
	lookupEnv  func(string) (string, bool)
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		envPrefix: DefaultEnvPrefix,
		cmdArgs:   make(map[string]string),
		lookupEnv: os.LookupEnv,
	}
}

// WithConfigPath sets the path to the YAML configuration file.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix sets the prefix for environment variables.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithCmdArgs sets command-line overrides keyed by dotted yaml path.
func (l *Loader) WithCmdArgs(args map[string]string) *Loader {
	l.cmdArgs = args
	return l
}

// WithEnvLookup replaces os.LookupEnv.
func (l *Loader) WithEnvLookup(fn func(string) (string, bool)) *Loader {
	l.lookupEnv = fn
	return l
}

// Load loads configuration from all sources with proper precedence:
// defaults < YAML file < environment variables < command-line flags
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := l.applyEnvToStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("apply environment overrides: %w", err)
	}

	if err := l.applyCmdOverrides(cfg); err != nil {
		return nil, fmt.Errorf("apply command-line overrides: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads configuration from a YAML file. A missing file is not an error.
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", l.configPath, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", l.configPath, err)
	}
	return nil
}

// applyEnvToStruct recursively applies environment variables to struct fields.
func (l *Loader) applyEnvToStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if field.Kind() == reflect.Struct {
			if err := l.applyEnvToStruct(field); err != nil {
				return err
			}
			continue
		}

		envTag := fieldType.Tag.Get("env")
		if envTag == "" {
			continue
		}

		name := l.envPrefix + envTag
		envValue, ok := l.lookupEnv(name)
		if !ok || envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("set %s from %s: %w", fieldType.Name, name, err)
		}
	}

	return nil
}

func (l *Loader) applyCmdOverrides(cfg *Config) error {
	for key, value := range l.cmdArgs {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets a configuration value by dotted yaml path, e.g. dice.seed.
func setConfigValue(cfg *Config, path, value string) error {
	parts := strings.Split(path, ".")
	v := reflect.ValueOf(cfg).Elem()

	for i, part := range parts {
		field, ok := fieldByYAMLName(v, part)
		if !ok {
			return fmt.Errorf("unknown config path %q", path)
		}

		if i == len(parts)-1 {
			return setFieldValue(field, value)
		}

		if field.Kind() != reflect.Struct {
			return fmt.Errorf("%s is a %s, not a section", part, field.Kind())
		}
		v = field
	}

	return nil
}

func fieldByYAMLName(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := strings.Split(t.Field(i).Tag.Get("yaml"), ",")[0]
		if tag == name || strings.EqualFold(t.Field(i).Name, name) {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// setFieldValue sets a reflect.Value from a string value.
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return fmt.Errorf("field cannot be set")
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid unsigned integer: %w", err)
		}
		field.SetUint(u)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float: %w", err)
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		// comma-separated
		parts := strings.Split(value, ",")
		switch field.Type().Elem().Kind() {
		case reflect.String:
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		case reflect.Int:
			ints := make([]int, 0, len(parts))
			for _, p := range parts {
				n, err := strconv.Atoi(strings.TrimSpace(p))
				if err != nil {
					return fmt.Errorf("invalid integer list: %w", err)
				}
				ints = append(ints, n)
			}
			field.Set(reflect.ValueOf(ints))
		default:
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// ParseOverrides turns key=value pairs into a map for WithCmdArgs.
func ParseOverrides(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid override %q, expected key=value", p)
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}

// Serialize serializes the configuration to YAML bytes.
func (c *Config) Serialize() ([]byte, error) {
	return yaml.Marshal(c)
}

// ParseConfig parses a YAML configuration from bytes on top of the defaults.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file path.
func LoadFromFile(path string) (*Config, error) {
	return NewLoader().WithConfigPath(path).Load()
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	data, _ := c.Serialize()
	clone, _ := ParseConfig(data)
	return clone
}
