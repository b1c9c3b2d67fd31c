package mirror

import "github.com/system-metaverse/system-go/pkg/entity"

// Created is published when a row passes the scope filter and enters the
// local cache.
type Created[T entity.Record] struct {
	Record T
}

// Updated is published when a cached row is replaced by a newer snapshot.
// Both snapshots are carried so consumers can diff them.
type Updated[T entity.Record] struct {
	Old T
	New T
}

// Deleted is published when a cached row is removed.
type Deleted[T entity.Record] struct {
	Record T
}
