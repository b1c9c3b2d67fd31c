package world

import "fmt"

// Coords identifies a spatial partition of the game universe.
// Every server table row carries the coordinates of the world it belongs to,
// and the client mirrors exactly one world at a time.
type Coords struct {
	X int32 `cbor:"1,keyasint" json:"x"`
	Y int32 `cbor:"2,keyasint" json:"y"`
	Z int32 `cbor:"3,keyasint" json:"z"`
}

// Origin is the center world, where new players spawn.
var Origin = Coords{X: 0, Y: 0, Z: 0}

// String returns the coordinates in "(x,y,z)" form.
func (c Coords) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.X, c.Y, c.Z)
}

// ShellLevel returns the Chebyshev distance from the origin.
// Worlds are arranged in concentric shells; the shell determines
// which energy frequencies its circuits emit.
func (c Coords) ShellLevel() uint8 {
	level := absInt32(c.X)
	if v := absInt32(c.Y); v > level {
		level = v
	}
	if v := absInt32(c.Z); v > level {
		level = v
	}
	if level > 255 {
		return 255
	}
	return uint8(level)
}

// Vector3 is a position or velocity within a single world.
type Vector3 struct {
	X float32 `cbor:"1,keyasint" json:"x"`
	Y float32 `cbor:"2,keyasint" json:"y"`
	Z float32 `cbor:"3,keyasint" json:"z"`
}

// String returns the vector in "(x,y,z)" form with two decimals.
func (v Vector3) String() string {
	return fmt.Sprintf("(%.2f,%.2f,%.2f)", v.X, v.Y, v.Z)
}

func absInt32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
