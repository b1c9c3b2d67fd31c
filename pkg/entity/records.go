package entity

import "github.com/system-metaverse/system-go/pkg/world"

// Player is a row of the online-player table.
//
// CBOR encoding uses integer keys, matching the row format the server
// publishes through subscription updates.
type Player struct {
	PlayerID     uint64        `cbor:"1,keyasint" json:"player_id"`
	Identity     string        `cbor:"2,keyasint" json:"identity"`
	Name         string        `cbor:"3,keyasint" json:"name"`
	CurrentWorld world.Coords  `cbor:"4,keyasint" json:"current_world"`
	Position     world.Vector3 `cbor:"5,keyasint" json:"position"`
	Rotation     world.Vector3 `cbor:"6,keyasint" json:"rotation"`
	LastUpdate   int64         `cbor:"7,keyasint" json:"last_update"`
}

// Family returns FamilyPlayers.
func (Player) Family() Family { return FamilyPlayers }

// Key returns the player ID.
func (p Player) Key() uint64 { return p.PlayerID }

// World returns the world the player currently occupies.
func (p Player) World() world.Coords { return p.CurrentWorld }

// EnergyOrb is a row of the airborne energy orb table. Circuits emit orbs in
// volcano-style arcs; clients render them until they expire or are collected.
type EnergyOrb struct {
	OrbID        uint64          `cbor:"1,keyasint" json:"orb_id"`
	WorldCoords  world.Coords    `cbor:"2,keyasint" json:"world_coords"`
	Position     world.Vector3   `cbor:"3,keyasint" json:"position"`
	Velocity     world.Vector3   `cbor:"4,keyasint" json:"velocity"`
	Signature    EnergySignature `cbor:"5,keyasint" json:"signature"`
	QuantumCount uint32          `cbor:"6,keyasint" json:"quantum_count"`
	CreationTime uint64          `cbor:"7,keyasint" json:"creation_time"`
}

// Family returns FamilyEnergyOrbs.
func (EnergyOrb) Family() Family { return FamilyEnergyOrbs }

// Key returns the orb ID.
func (o EnergyOrb) Key() uint64 { return o.OrbID }

// World returns the world the orb belongs to.
func (o EnergyOrb) World() world.Coords { return o.WorldCoords }

// EnergyPuddle is a row of the grounded energy table. Orbs that land without
// being collected pool into puddles that slowly evaporate.
type EnergyPuddle struct {
	PuddleID     uint64          `cbor:"1,keyasint" json:"puddle_id"`
	WorldCoords  world.Coords    `cbor:"2,keyasint" json:"world_coords"`
	Position     world.Vector3   `cbor:"3,keyasint" json:"position"`
	Signature    EnergySignature `cbor:"4,keyasint" json:"signature"`
	QuantumCount uint32          `cbor:"5,keyasint" json:"quantum_count"`
	FormedAt     uint64          `cbor:"6,keyasint" json:"formed_at"`
}

// Family returns FamilyEnergyPuddles.
func (EnergyPuddle) Family() Family { return FamilyEnergyPuddles }

// Key returns the puddle ID.
func (p EnergyPuddle) Key() uint64 { return p.PuddleID }

// World returns the world the puddle belongs to.
func (p EnergyPuddle) World() world.Coords { return p.WorldCoords }

// WorldCircuit is a row of the circuit table. Every world hosts one circuit
// that emits energy orbs on a fixed interval.
type WorldCircuit struct {
	CircuitID          uint64       `cbor:"1,keyasint" json:"circuit_id"`
	WorldCoords        world.Coords `cbor:"2,keyasint" json:"world_coords"`
	QubitCount         uint8        `cbor:"3,keyasint" json:"qubit_count"`
	EmissionIntervalMs uint64       `cbor:"4,keyasint" json:"emission_interval_ms"`
	OrbsPerEmission    uint32       `cbor:"5,keyasint" json:"orbs_per_emission"`
	LastEmissionTime   uint64       `cbor:"6,keyasint" json:"last_emission_time"`
}

// Family returns FamilyCircuits.
func (WorldCircuit) Family() Family { return FamilyCircuits }

// Key returns the circuit ID.
func (c WorldCircuit) Key() uint64 { return c.CircuitID }

// World returns the world the circuit belongs to.
func (c WorldCircuit) World() world.Coords { return c.WorldCoords }

// Compile-time interface satisfaction checks.
var (
	_ Record = Player{}
	_ Record = EnergyOrb{}
	_ Record = EnergyPuddle{}
	_ Record = WorldCircuit{}
)
