package entity

// Family identifies one kind of tracked server table.
type Family uint8

const (
	// FamilyPlayers is the table of online players.
	FamilyPlayers Family = 1

	// FamilyEnergyOrbs is the table of airborne energy orbs.
	FamilyEnergyOrbs Family = 2

	// FamilyEnergyPuddles is the table of grounded energy puddles.
	FamilyEnergyPuddles Family = 3

	// FamilyCircuits is the table of world circuits.
	FamilyCircuits Family = 4
)

// String returns a human-readable family name.
func (f Family) String() string {
	switch f {
	case FamilyPlayers:
		return "players"
	case FamilyEnergyOrbs:
		return "energy_orbs"
	case FamilyEnergyPuddles:
		return "energy_puddles"
	case FamilyCircuits:
		return "circuits"
	default:
		return "unknown"
	}
}

// IsValid returns true for a known family.
func (f Family) IsValid() bool {
	return f >= FamilyPlayers && f <= FamilyCircuits
}

// Families lists every tracked family.
func Families() []Family {
	return []Family{FamilyPlayers, FamilyEnergyOrbs, FamilyEnergyPuddles, FamilyCircuits}
}
