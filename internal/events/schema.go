package events

import "time"

// ManifestAssembled is emitted after type definitions and resolver trees
// have been derived from a manifest.
type ManifestAssembled struct {
	Modules   int
	TypeDefs  int
	Resolvers int
	// Synthesized lists the root types given a placeholder declaration.
	Synthesized []string
	Duration    time.Duration
}

// SchemaBuilt is emitted after an executable schema build attempt.
type SchemaBuilt struct {
	Types    int
	Err      error
	Duration time.Duration
}

// ResolverMismatch is emitted for every resolver that does not match the
// schema when validation runs in warn mode.
type ResolverMismatch struct {
	Message string
}
