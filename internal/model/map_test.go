package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func lookupMap() *Map {
	m := NewMap()
	diplomacy := make([]Hex16, 16)
	diplomacy[1] = DiplomacyEnemy
	m.Players = []Player{{Name: "One", Diplomacy: diplomacy}, {Name: "Two", Diplomacy: make([]Hex16, 16)}}
	m.Instances = []Instance{{Name: "Spawn", Index: 4}, {Name: "Win", Index: 9}}
	m.Checks = []Instance{{Name: "Dead", Index: 2}}
	m.Bags = []Bag{{Gold: 10}, {Gold: 20}}
	m.Music = []Music{{}, {}}
	return m
}

func TestDiplomacyWith(t *testing.T) {
	p := lookupMap().Players[0]
	tests := []struct {
		id   int
		want Hex16
	}{
		{1, 0},
		{2, DiplomacyEnemy},
		{0, 0},
		{17, 0},
	}
	for _, tt := range tests {
		if got := p.DiplomacyWith(tt.id); got != tt.want {
			t.Errorf("DiplomacyWith(%d) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestIndexLookups(t *testing.T) {
	m := lookupMap()

	inst, ok := m.Instance(9)
	if !ok || inst.Name != "Win" {
		t.Errorf("Instance(9) = %+v, %v; want Win", inst, ok)
	}
	if _, ok := m.Instance(2); ok {
		t.Error("Instance(2) found a check")
	}
	check, ok := m.Check(2)
	if !ok || check.Name != "Dead" {
		t.Errorf("Check(2) = %+v, %v; want Dead", check, ok)
	}

	inst.Name = "Renamed"
	if m.Instances[1].Name != "Renamed" {
		t.Error("Instance does not return the stored record")
	}
}

func TestBagLookup(t *testing.T) {
	m := lookupMap()
	if b, ok := m.Bag(2); !ok || b.Gold != 20 {
		t.Errorf("Bag(2) = %+v, %v; want gold 20", b, ok)
	}
	for _, id := range []uint32{0, 3} {
		if _, ok := m.Bag(id); ok {
			t.Errorf("Bag(%d) found a bag", id)
		}
	}
}

func TestDerivedInfo(t *testing.T) {
	m := lookupMap()
	m.Info.NumPlayers = 99
	info := m.DerivedInfo()
	if info.NumPlayers != 2 {
		t.Errorf("NumPlayers = %d, want 2", info.NumPlayers)
	}
	if info.NumLogic != 3 {
		t.Errorf("NumLogic = %d, want 3", info.NumLogic)
	}
	if info.NumMusic != 1 {
		t.Errorf("NumMusic = %d, want 1", info.NumMusic)
	}
	if m.Info.NumPlayers != 99 {
		t.Error("DerivedInfo modified the map")
	}
}

func TestTriggerJSONNames(t *testing.T) {
	b, err := json.Marshal(Trigger{CheckIDs: []uint32{1}, InstanceIDs: []uint32{2}})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"check_ids":[1]`, `"instance_ids":[2]`} {
		if !strings.Contains(string(b), want) {
			t.Errorf("%s missing %s", b, want)
		}
	}
}
