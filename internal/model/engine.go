package model

import (
	"fmt"

	"github.com/dyuri/almconv/internal/layout"
)

// Kingdom values that identify the two unit-kind record shapes.
const (
	KingdomMonster = 62
	KingdomHuman   = 26
)

// KindShape tells which record layout a UnitKind was recovered from.
type KindShape string

const (
	ShapeMonster KindShape = "monster"
	ShapeHuman   KindShape = "human"
)

// UnitKind is a unit-type definition recovered from data.bin. It is distinct
// from a placed Unit, which refers to its kind by ServerID.
type UnitKind struct {
	Name      string        `json:"name"`
	Shape     KindShape     `json:"shape"`
	Kingdom   uint16        `json:"kingdom"`
	ServerID  uint32        `json:"server_id"`
	Items     []string      `json:"items"`               // Equipment/drop item names in stream order
	Ambiguous bool          `json:"ambiguous,omitempty"` // Item list needed the multi-burst heuristic
	Stats     layout.Record `json:"stats"`               // The full fixed record, by field name
}

// EngineData is the lookup data shared by every map of one game install.
type EngineData struct {
	ItemNames     map[uint32]string // Item id -> localized name
	SpellNames    []string          // Spell id-1 -> name
	ItemModifiers []string          // Modifier id -> stat name
	UnitKinds     map[uint32]*UnitKind
}

// UnitName returns the name of the unit kind with the given server id.
func (e *EngineData) UnitName(serverID uint32) string {
	if k, ok := e.UnitKinds[serverID]; ok {
		return k.Name
	}
	return fmt.Sprintf("(!failed to find unit: server_id=%d)", serverID)
}

// SpellName returns the name of a one-based spell id, "" for id 0.
func (e *EngineData) SpellName(spellID int) string {
	if spellID == 0 {
		return ""
	}
	if spellID < 1 || spellID > len(e.SpellNames) {
		return fmt.Sprintf("(!unknown spell %d)", spellID)
	}
	return e.SpellNames[spellID-1]
}

// ItemName returns the localized name of an item id.
func (e *EngineData) ItemName(itemID uint32) string {
	if n, ok := e.ItemNames[itemID]; ok {
		return n
	}
	return fmt.Sprintf("(!unknown item 0x%X)", itemID)
}

// ModifierName returns the stat name of a modifier id.
func (e *EngineData) ModifierName(id int) string {
	if id < 0 || id >= len(e.ItemModifiers) {
		return fmt.Sprintf("(!unknown modifier %d)", id)
	}
	return e.ItemModifiers[id]
}
