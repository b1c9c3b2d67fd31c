package entity

import "github.com/system-metaverse/system-go/pkg/world"

// Record is a server-defined row snapshot tracked by the client.
//
// Records are immutable value snapshots: every update from the server
// replaces the cached value wholesale, nothing is mutated in place. The key
// is unique within a family, not across families.
type Record interface {
	// Family returns the table this record belongs to.
	Family() Family

	// Key returns the record's unique identifier within its family.
	Key() uint64

	// World returns the coordinates of the world the record belongs to.
	World() world.Coords
}
