// Package config loads the TOML configuration for novels.
//
// Values are read from ~/.config/novels/config.toml, or ./novels.toml when
// that file does not exist, and then normalized: paths are expanded and
// unusable settings fall back to defaults with a warning instead of failing
// the run. Command-line flags are applied by the caller after loading.
package config
