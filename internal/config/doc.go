// Package config provides rpncalc configuration management.
// Configuration is read from a YAML file, RPN_* environment variables and
// --set key=value command-line overrides, in order of increasing precedence:
// defaults < YAML file < environment variables < command-line overrides.
package config
