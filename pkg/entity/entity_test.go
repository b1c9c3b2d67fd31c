package entity

import (
	"testing"

	"github.com/system-metaverse/system-go/pkg/world"
)

func TestFamilyString(t *testing.T) {
	tests := []struct {
		family Family
		want   string
	}{
		{FamilyPlayers, "players"},
		{FamilyEnergyOrbs, "energy_orbs"},
		{FamilyEnergyPuddles, "energy_puddles"},
		{FamilyCircuits, "circuits"},
		{Family(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.family.String(); got != tt.want {
			t.Errorf("Family(%d).String() = %q, want %q", tt.family, got, tt.want)
		}
	}
}

func TestFamilyIsValid(t *testing.T) {
	for _, f := range Families() {
		if !f.IsValid() {
			t.Errorf("Family %v should be valid", f)
		}
	}
	if Family(0).IsValid() {
		t.Error("Family(0) should be invalid")
	}
	if Family(5).IsValid() {
		t.Error("Family(5) should be invalid")
	}
}

func TestFrequencyBands(t *testing.T) {
	tests := []struct {
		frequency float32
		want      FrequencyBand
	}{
		{0.0, BandDeepRed},
		{0.14, BandDeepRed},
		{0.15, BandRed},
		{0.3, BandOrange},
		{0.5, BandYellow},
		{0.6, BandGreen},
		{0.8, BandBlue},
		{0.95, BandViolet},
		{1.0, BandViolet},
	}

	for _, tt := range tests {
		sig := EnergySignature{Frequency: tt.frequency}
		if got := sig.Band(); got != tt.want {
			t.Errorf("Band(%.2f) = %s, want %s", tt.frequency, got, tt.want)
		}
	}
}

func TestSignatureHash(t *testing.T) {
	a := EnergySignature{Frequency: 0.5}
	b := EnergySignature{Frequency: 0.5}
	c := EnergySignature{Frequency: 0.7}

	if a.Hash() != b.Hash() {
		t.Error("equal signatures should hash equal")
	}
	if a.Hash() == c.Hash() {
		t.Error("different signatures should hash differently")
	}
}

func TestRecordIdentity(t *testing.T) {
	coords := world.Coords{X: 1, Y: 2, Z: 3}

	orb := EnergyOrb{OrbID: 42, WorldCoords: coords}
	if orb.Family() != FamilyEnergyOrbs || orb.Key() != 42 || orb.World() != coords {
		t.Errorf("EnergyOrb identity mismatch: %v %d %v", orb.Family(), orb.Key(), orb.World())
	}

	player := Player{PlayerID: 7, CurrentWorld: coords}
	if player.Family() != FamilyPlayers || player.Key() != 7 || player.World() != coords {
		t.Errorf("Player identity mismatch: %v %d %v", player.Family(), player.Key(), player.World())
	}

	puddle := EnergyPuddle{PuddleID: 9, WorldCoords: coords}
	if puddle.Family() != FamilyEnergyPuddles || puddle.Key() != 9 {
		t.Errorf("EnergyPuddle identity mismatch: %v %d", puddle.Family(), puddle.Key())
	}

	circuit := WorldCircuit{CircuitID: 3, WorldCoords: coords}
	if circuit.Family() != FamilyCircuits || circuit.Key() != 3 {
		t.Errorf("WorldCircuit identity mismatch: %v %d", circuit.Family(), circuit.Key())
	}
}
