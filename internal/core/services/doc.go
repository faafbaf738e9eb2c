// Package services contains the core use-case implementations: the
// ingestion coordinator, the tool-calling orchestrator, the built-in
// tool set and the background sync scheduler. Services depend only on
// the port interfaces; adapters are injected at wiring time.
package services
