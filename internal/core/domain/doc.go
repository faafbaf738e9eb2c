// Package domain contains the core business entities and invariants.
// It has no dependencies on adapters or infrastructure.
package domain
