package app

import "github.com/oklog/ulid/v2"

// generateID produces a lexically sortable identifier.
// Isolated here so the ID strategy can evolve independently.
func generateID() string {
	return ulid.Make().String()
}
