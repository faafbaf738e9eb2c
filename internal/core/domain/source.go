package domain

// Source represents a configured data source.
// Each source produces items via a connector.
type Source struct {
	// ID is the unique identifier for the source.
	ID string

	// Type identifies the connector type ("gdrive", "notion", "web", "uploads").
	Type string

	// Name is the human-readable name for this source.
	Name string

	// Config contains connector-specific configuration.
	Config map[string]string
}

// SourceTypes lists the connector types this system ships with.
var SourceTypes = []string{"gdrive", "notion", "web", "uploads"}
