// Package wire defines the CBOR message encoding between the client and the
// hosted game database.
//
// All messages are CBOR maps with integer keys for compactness. Encoding is
// deterministic (canonical key order); decoding is lenient so newer servers
// can add fields without breaking older clients.
//
// The protocol is deliberately small: the client sends Subscribe/Unsubscribe
// for whole table families, the server answers with an acknowledgment
// (applied or error) and then streams transaction updates containing row
// inserts, updates and deletes. Row payloads stay opaque at this layer and
// are decoded by the mirror controller that owns the family.
package wire
