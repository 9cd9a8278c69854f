package config

import (
	"fmt"
	"net"
	"strings"
	"unicode"

	"github.com/tariel36/rpncalc/internal/dice"
	"github.com/tariel36/rpncalc/internal/expression"
	"github.com/tariel36/rpncalc/pkg/logger"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration values.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

func (v *Validator) addError(field, message string) {
	v.errors = append(v.errors, ValidationError{Field: field, Message: message})
}

// Validate validates the entire configuration and returns every problem found.
func (v *Validator) Validate(cfg *Config) error {
	v.errors = make(ValidationErrors, 0)

	v.validateLexerConfig(&cfg.Lexer)
	v.validateDiceConfig(&cfg.Dice)
	v.validateFunctionsConfig(&cfg.Functions)
	v.validateServerConfig(&cfg.Server)
	v.validateRemoteConfig(&cfg.Remote)
	v.validateBatchConfig(&cfg.Batch)
	v.validateCacheConfig(&cfg.Cache)
	v.validateLoggingConfig(&cfg.Logging)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

func (v *Validator) validateLexerConfig(cfg *LexerConfig) {
	for _, r := range cfg.UnaryContext {
		if r > unicode.MaxASCII {
			v.addError("lexer.unary_context", fmt.Sprintf("%q is not an ASCII character", r))
			return
		}
	}
}

func (v *Validator) validateDiceConfig(cfg *DiceConfig) {
	switch strings.ToLower(cfg.Provider) {
	case dice.ProviderPCG, dice.ProviderCrypto:
	case dice.ProviderSequence:
		if len(cfg.Sequence) == 0 {
			v.addError("dice.sequence", "sequence provider requires at least one value")
		}
	default:
		v.addError("dice.provider", fmt.Sprintf("invalid provider '%s', must be one of: pcg, crypto, sequence", cfg.Provider))
	}

	if cfg.MaxCount < 0 {
		v.addError("dice.max_count", "max count must be non-negative")
	}
	if cfg.MaxSides < 0 {
		v.addError("dice.max_sides", "max sides must be non-negative")
	}
}

func (v *Validator) validateFunctionsConfig(cfg *FunctionsConfig) {
	switch cfg.Engine {
	case "goja", "otto":
	default:
		v.addError("functions.engine", fmt.Sprintf("invalid engine '%s', must be one of: goja, otto", cfg.Engine))
	}

	if cfg.ScriptTimeout < 0 {
		v.addError("functions.script_timeout", "script timeout must be non-negative")
	}

	for i, fn := range cfg.Scripts {
		field := fmt.Sprintf("functions.scripts[%d]", i)
		if !expression.IsValidFunctionName(fn.Name) {
			v.addError(field+".name", fmt.Sprintf("invalid function name '%s'", fn.Name))
		}
		if strings.TrimSpace(fn.Script) == "" {
			v.addError(field+".script", "script is required")
		}
		seen := make(map[string]bool, len(fn.Args))
		for j, arg := range fn.Args {
			argField := fmt.Sprintf("%s.args[%d]", field, j)
			if arg.Name == "" {
				v.addError(argField+".name", "argument name is required")
			} else if seen[arg.Name] {
				v.addError(argField+".name", fmt.Sprintf("duplicate argument '%s'", arg.Name))
			}
			seen[arg.Name] = true

			var typ expression.ArgumentType
			if err := typ.UnmarshalText([]byte(arg.Type)); err != nil {
				v.addError(argField+".type", err.Error())
			}
		}
	}
}

func (v *Validator) validateServerConfig(cfg *ServerConfig) {
	if cfg.Address == "" {
		v.addError("server.address", "address is required")
	} else if !isValidAddress(cfg.Address) {
		v.addError("server.address", "invalid address format, expected host:port or :port")
	}

	if cfg.ReadTimeout < 0 {
		v.addError("server.read_timeout", "read timeout must be non-negative")
	}
	if cfg.WriteTimeout < 0 {
		v.addError("server.write_timeout", "write timeout must be non-negative")
	}
	if cfg.RateLimit < 0 {
		v.addError("server.rate_limit", "rate limit must be non-negative")
	}
	if cfg.RateLimit > 0 && cfg.RateBurst < 1 {
		v.addError("server.rate_burst", "rate burst must be at least 1 when rate limiting is enabled")
	}
	if cfg.BodyLimit < 0 {
		v.addError("server.body_limit", "body limit must be non-negative")
	}
}

func (v *Validator) validateRemoteConfig(cfg *RemoteConfig) {
	if cfg.URL != "" && !strings.HasPrefix(cfg.URL, "http://") && !strings.HasPrefix(cfg.URL, "https://") {
		v.addError("remote.url", "url must start with http:// or https://")
	}
	if cfg.Timeout < 0 {
		v.addError("remote.timeout", "timeout must be non-negative")
	}
}

func (v *Validator) validateBatchConfig(cfg *BatchConfig) {
	if cfg.Workers < 1 {
		v.addError("batch.workers", "workers must be at least 1")
	}
}

func (v *Validator) validateCacheConfig(cfg *CacheConfig) {
	if cfg.Size < 0 {
		v.addError("cache.size", "cache size must be non-negative")
	}
}

func (v *Validator) validateLoggingConfig(cfg *LoggingConfig) {
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		v.addError("logging.level", fmt.Sprintf("invalid log level '%s', must be one of: debug, info, warn, error", cfg.Level))
	}

	switch cfg.Format {
	case "", "json", "console":
	default:
		v.addError("logging.format", fmt.Sprintf("invalid log format '%s', must be one of: json, console", cfg.Format))
	}

	switch cfg.Output {
	case "", "stdout", "stderr", "none":
	case "file", "both":
		if cfg.FilePath == "" {
			v.addError("logging.file_path", fmt.Sprintf("file path is required for output '%s'", cfg.Output))
		}
	default:
		v.addError("logging.output", fmt.Sprintf("invalid log output '%s', must be one of: stdout, stderr, file, both, none", cfg.Output))
	}
}

// isValidAddress checks if the address is a valid host:port format.
func isValidAddress(addr string) bool {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || port == "" {
		return false
	}
	if _, err := net.LookupPort("tcp", port); err != nil {
		return false
	}
	if host != "" && net.ParseIP(host) == nil && !isValidHostname(host) {
		return false
	}
	return true
}

// isValidHostname performs basic hostname validation.
func isValidHostname(hostname string) bool {
	if len(hostname) == 0 || len(hostname) > 253 {
		return false
	}
	for _, label := range strings.Split(hostname, ".") {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
		if !isAlphanumeric(label[0]) || !isAlphanumeric(label[len(label)-1]) {
			return false
		}
		for _, c := range label {
			if !isAlphanumeric(byte(c)) && c != '-' {
				return false
			}
		}
	}
	return true
}

func isAlphanumeric(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	return NewValidator().Validate(c)
}

// LoadAndValidate loads configuration from a file and validates it.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
