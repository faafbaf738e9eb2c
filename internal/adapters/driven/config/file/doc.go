// Package file provides the TOML configuration store. Configuration
// lives at ~/.centerbot/config.toml: credentials, the source list, the
// scheduler and agent settings. The store also serves the configured
// sources to the ingestion coordinator.
package file
