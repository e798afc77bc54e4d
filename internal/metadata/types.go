// Package metadata extracts structured model metadata from a parsed
// SQL model file: the model's documentation, its projected columns,
// and the upstream tables it reads from.
package metadata

// ModelMetadata describes one SQL model.
type ModelMetadata struct {
	// Name is the model's qualified name (e.g., "staging.customers").
	Name string `json:"name"`
	// Description is the model documentation taken from leading
	// full-line comments, joined with single spaces. Empty if the file
	// has no leading comments.
	Description string `json:"description,omitempty"`
	// Columns are the projected columns in source order.
	Columns []Column `json:"columns"`
	// Sources are the upstream tables referenced by the query,
	// deduplicated by ID.
	Sources []Source `json:"sources"`
}

// Column describes one projected column.
type Column struct {
	// Name is the effective column name: the alias if present,
	// otherwise the referenced identifier.
	Name string `json:"name"`
	// Description is taken from comments adjacent to the column,
	// newline-joined if there are several.
	Description string `json:"description,omitempty"`
	// DataType is reserved; extraction does not infer types.
	DataType string `json:"data_type,omitempty"`
	// Sources is reserved for column-level lineage.
	Sources []string `json:"sources,omitempty"`
}

// Source describes one upstream table referenced by a model.
type Source struct {
	// ID is the best-available qualified identifier, joining the
	// non-empty database, schema, and table parts with dots.
	ID string `json:"id"`
	// Name is the bare table token.
	Name string `json:"name"`
	// Database is the database part, if the reference was qualified.
	Database string `json:"database,omitempty"`
	// Schema is the schema part, if the reference was qualified.
	Schema string `json:"schema,omitempty"`
	// Description is reserved; source docs live with their own model.
	Description string `json:"description,omitempty"`
}
