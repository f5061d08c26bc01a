// Package config loads rkexpr command configuration from files, the
// environment, and command-line flags.
package config
