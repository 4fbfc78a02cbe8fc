// Package confloader loads layered configuration on top of koanf.
//
// A Loader merges up to three sources into one typed struct:
//
//  1. A defaults map (lowest priority)
//  2. A YAML configuration file
//  3. Prefixed environment variables (highest priority)
//
// Command-line flag overrides are applied by callers after Load, since
// flag parsing belongs to the CLI layer.
//
// The package also provides a Watcher that reloads registered files on
// change, used by the agent for live log level adjustment.
package confloader
