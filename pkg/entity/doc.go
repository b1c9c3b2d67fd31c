// Package entity defines the client-side snapshots of the server tables the
// client mirrors: players, energy orbs, energy puddles and world circuits.
//
// Rows arrive over the wire as integer-keyed CBOR maps and are decoded into
// the types here. All types are plain value snapshots; the mirror replaces
// them on update rather than mutating fields.
package entity
