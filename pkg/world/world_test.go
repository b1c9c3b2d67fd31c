package world

import "testing"

func TestCoordsString(t *testing.T) {
	c := Coords{X: 1, Y: -2, Z: 3}
	if got := c.String(); got != "(1,-2,3)" {
		t.Errorf("String() = %q, want (1,-2,3)", got)
	}
}

func TestShellLevel(t *testing.T) {
	tests := []struct {
		coords Coords
		want   uint8
	}{
		{Coords{0, 0, 0}, 0},
		{Coords{1, 0, 0}, 1},
		{Coords{-1, 0, 0}, 1},
		{Coords{2, -3, 1}, 3},
		{Coords{0, 0, -5}, 5},
	}

	for _, tt := range tests {
		if got := tt.coords.ShellLevel(); got != tt.want {
			t.Errorf("ShellLevel(%v) = %d, want %d", tt.coords, got, tt.want)
		}
	}
}

func TestManagerSet(t *testing.T) {
	m := NewManager(Origin)

	if m.Current() != Origin {
		t.Fatalf("Current() = %v, want origin", m.Current())
	}

	var gotOld, gotNew Coords
	calls := 0
	m.OnChange(func(old, next Coords) {
		gotOld, gotNew = old, next
		calls++
	})

	target := Coords{X: 1, Y: 2, Z: 3}
	m.Set(target)

	if m.Current() != target {
		t.Errorf("Current() = %v, want %v", m.Current(), target)
	}
	if calls != 1 {
		t.Fatalf("observer calls = %d, want 1", calls)
	}
	if gotOld != Origin || gotNew != target {
		t.Errorf("observer got (%v, %v), want (%v, %v)", gotOld, gotNew, Origin, target)
	}
}

func TestManagerSetSameCoordsIsNoop(t *testing.T) {
	m := NewManager(Coords{X: 4, Y: 5, Z: 6})

	calls := 0
	m.OnChange(func(old, next Coords) { calls++ })

	m.Set(Coords{X: 4, Y: 5, Z: 6})

	if calls != 0 {
		t.Errorf("observer calls = %d after same-coords Set, want 0", calls)
	}
}

func TestStaticResolver(t *testing.T) {
	r := Static{X: 7, Y: 8, Z: 9}
	if r.Current() != (Coords{X: 7, Y: 8, Z: 9}) {
		t.Errorf("Current() = %v", r.Current())
	}
}
