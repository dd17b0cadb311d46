package almconv

import (
	"fmt"
	"io"

	"github.com/dyuri/almconv/internal/model"
	"github.com/sirupsen/logrus"
)

var discardLogger = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

// musicSection is the id of the section holding music records.
const musicSection = 12

// ValidationError represents a structural issue found in a map
type ValidationError struct {
	Field   string // Field name or location
	Message string // Error description
	Level   string // "error" or "warning"
}

func (v ValidationError) String() string {
	return fmt.Sprintf("%s: %s: %s", v.Level, v.Field, v.Message)
}

// Validate checks a map for structural problems that would make it fail to
// encode or decode. Unlike EncodeMap it reports every problem, not just the
// first. An empty list means the map is consistent.
func Validate(m *model.Map) []ValidationError {
	var out []ValidationError
	fail := func(field, format string, args ...any) {
		out = append(out, ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Level: "error"})
	}
	warn := func(field, format string, args ...any) {
		out = append(out, ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Level: "warning"})
	}

	cells := int(m.Info.Width) * int(m.Info.Height)
	for _, grid := range []struct {
		name string
		n    int
	}{
		{"tiles", len(m.Tiles)},
		{"heights", len(m.Heights)},
		{"objects", len(m.Objects)},
	} {
		if grid.n != cells {
			warn(grid.name, "%d cells, map is %dx%d", grid.n, m.Info.Width, m.Info.Height)
		}
	}

	for i, b := range m.Buildings {
		if b.IsBridge() != (b.Bridge != nil) {
			fail(fmt.Sprintf("buildings[%d].bridge", i), "type 0x%X with bridge size present=%t", b.TypeID, b.Bridge != nil)
		}
	}
	for i, p := range m.Players {
		if len(p.Diplomacy) != 16 {
			fail(fmt.Sprintf("players[%d].diplomacy", i), "%d entries, want 16", len(p.Diplomacy))
		}
	}

	checkIndexes := func(kind string, list []model.Instance, zerosAllowed bool) {
		seen := make(map[uint32]int)
		allZero := true
		for _, inst := range list {
			if inst.Index != 0 {
				allZero = false
			}
		}
		for i, inst := range list {
			if len(inst.ArgValues) != 10 || len(inst.ArgTypes) != 10 || len(inst.ArgNames) != 10 {
				fail(fmt.Sprintf("%s[%d]", kind, i), "arguments must have 10 entries")
			}
			if zerosAllowed && allZero {
				continue
			}
			if first, dup := seen[inst.Index]; dup {
				fail(fmt.Sprintf("%s[%d].index", kind, i), "index %d already used by %s[%d]", inst.Index, kind, first)
				continue
			}
			seen[inst.Index] = i
		}
	}
	checkIndexes("instances", m.Instances, false)
	checkIndexes("checks", m.Checks, true)

	for i, t := range m.Triggers {
		if len(t.CheckIDs) != 6 || len(t.InstanceIDs) != 4 || len(t.CheckOperators) != 3 {
			fail(fmt.Sprintf("triggers[%d]", i), "want 6 check ids, 4 instance ids and 3 operators")
		}
	}
	for i, e := range m.Effects {
		if n := len(e.Modifiers); n != 0 && n != 2 {
			fail(fmt.Sprintf("effects[%d].modifiers", i), "%d modifiers, want 0 or 2", n)
		}
	}
	for i, s := range m.Shops {
		if len(s.ShelfFlags) != 4 || len(s.MinPrice) != 4 || len(s.MaxPrice) != 4 ||
			len(s.MaxItems) != 4 || len(s.MaxSameTypeItems) != 4 {
			fail(fmt.Sprintf("shops[%d]", i), "every shelf list must have 4 entries")
		}
	}
	if len(m.Music) == 0 && writesSection(m, musicSection) {
		fail("music", "at least one music record is required")
	}
	for i, mu := range m.Music {
		if len(mu.MelodyTypeID) != 4 {
			fail(fmt.Sprintf("music[%d].melody_type_id", i), "%d entries, want 4", len(mu.MelodyTypeID))
		}
	}

	if _, err := EncodeMap(m, WithLogger(discardLogger)); err != nil && len(out) == 0 {
		fail("map", "%v", err)
	}
	return out
}

// writesSection reports whether encoding m emits section id. Maps without
// section metadata get every section.
func writesSection(m *model.Map, id uint32) bool {
	if len(m.File.Sections) == 0 {
		return true
	}
	for _, s := range m.File.Sections {
		if s.ID == id {
			return true
		}
	}
	return false
}
