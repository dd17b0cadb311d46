package engine

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/dyuri/almconv/internal/errs"
	"github.com/dyuri/almconv/internal/layout"
	"github.com/dyuri/almconv/internal/model"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestLayoutSizes(t *testing.T) {
	if got := MonsterLayout.Size(); got != 250 {
		t.Errorf("MonsterLayout.Size() = %d, want 250", got)
	}
	if got := HumanLayout.Size(); got != 106 {
		t.Errorf("HumanLayout.Size() = %d, want 106", got)
	}
}

// blob assembles a synthetic data.bin image
type blob struct {
	bytes.Buffer
}

func (b *blob) str(s string) *blob {
	b.WriteByte(byte(len(s)))
	b.WriteString(s)
	return b
}

func (b *blob) raw(p ...byte) *blob {
	b.Write(p)
	return b
}

func (b *blob) record(t *testing.T, l *layout.Layout, kingdom, serverID uint32) *blob {
	t.Helper()
	r := l.NewRecord()
	r.SetUint("kingdom", kingdom)
	r.SetUint("server_id", serverID)
	r.SetUint("type_id", serverID+1)
	enc, err := l.Encode(r)
	if err != nil {
		t.Fatalf("Encode %s failed: %v", l.Name(), err)
	}
	b.Write(enc)
	return b
}

// exhaustedItem is an oversized item read containing NUL
func exhaustedItem() []byte {
	item := make([]byte, 129)
	item[0] = 128
	copy(item[1:], "garbage")
	return item
}

func sampleDataBin(t *testing.T, extraItem bool) []byte {
	var b blob
	b.raw(0xFF, 0xFF)
	b.str("Catapult").record(t, MonsterLayout, model.KingdomMonster, 100)
	b.str("Stone").raw(0).raw(0, 0)
	b.str("Human").record(t, MonsterLayout, model.KingdomMonster, 999)
	b.raw(0xAA, 0xBB)
	b.str("Man_Unarmed").record(t, HumanLayout, model.KingdomHuman, 200)
	b.str("Club").raw(0)
	if extraItem {
		b.str("Axe").raw(0)
	}
	b.str("Tail").record(t, HumanLayout, model.KingdomHuman, 300)
	b.raw(exhaustedItem()...)
	return b.Bytes()
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestRecoverUnitKinds(t *testing.T) {
	kinds, err := RecoverUnitKinds(sampleDataBin(t, false), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("RecoverUnitKinds failed: %v", err)
	}
	if len(kinds) != 2 {
		t.Fatalf("Got %d kinds, want 2:\n%s", len(kinds), spew.Sdump(kinds))
	}

	catapult := kinds[0]
	if catapult.Name != "Catapult" || catapult.Shape != model.ShapeMonster {
		t.Errorf("kind 0 = %q (%s), want Catapult (monster)", catapult.Name, catapult.Shape)
	}
	if catapult.ServerID != 100 {
		t.Errorf("Catapult ServerID = %d, want 100", catapult.ServerID)
	}
	if !reflect.DeepEqual(catapult.Items, []string{"Stone"}) {
		t.Errorf("Catapult Items = %v, want [Stone]", catapult.Items)
	}
	if catapult.Stats.Uint("type_id") != 101 {
		t.Errorf("Catapult type_id = %d, want 101", catapult.Stats.Uint("type_id"))
	}

	man := kinds[1]
	if man.Name != "Man_Unarmed" || man.Shape != model.ShapeHuman {
		t.Errorf("kind 1 = %q (%s), want Man_Unarmed (human)", man.Name, man.Shape)
	}
	if man.ServerID != 200 || man.Kingdom != model.KingdomHuman {
		t.Errorf("Man_Unarmed ServerID = %d, Kingdom = %d", man.ServerID, man.Kingdom)
	}
	if !reflect.DeepEqual(man.Items, []string{"Club"}) {
		t.Errorf("Man_Unarmed Items = %v, want [Club]", man.Items)
	}
	if man.Ambiguous {
		t.Error("Man_Unarmed flagged ambiguous")
	}
}

// TestAmbiguousItems checks that a list needing a second burst is kept and
// flagged for review
func TestAmbiguousItems(t *testing.T) {
	logger, hook := test.NewNullLogger()

	kinds, err := RecoverUnitKinds(sampleDataBin(t, true), WithLogger(logger))
	if err != nil {
		t.Fatalf("RecoverUnitKinds failed: %v", err)
	}
	if len(kinds) != 2 {
		t.Fatalf("Got %d kinds, want 2", len(kinds))
	}
	man := kinds[1]
	if !reflect.DeepEqual(man.Items, []string{"Club", "Axe"}) {
		t.Errorf("Items = %v, want [Club Axe]", man.Items)
	}
	if !man.Ambiguous {
		t.Error("Ambiguous = false, want true")
	}

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["name"] == "Man_Unarmed" {
			warned = true
		}
	}
	if !warned {
		t.Error("no warning logged for ambiguous item list")
	}
}

// TestItemPushback checks that a human name read as an item is pushed back
func TestItemPushback(t *testing.T) {
	var b blob
	b.str("Catapult").record(t, MonsterLayout, model.KingdomMonster, 1).raw(0)
	b.str("Human").record(t, MonsterLayout, model.KingdomMonster, 2)
	b.str("Man_Unarmed").record(t, HumanLayout, model.KingdomHuman, 10)
	b.str("Sword").str("Shield")
	b.str("Woman").record(t, HumanLayout, model.KingdomHuman, 11)
	b.str("Bow").raw(0)

	data := append([]byte{0}, b.Bytes()...)
	kinds, err := RecoverUnitKinds(data, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("RecoverUnitKinds failed: %v", err)
	}
	if len(kinds) != 3 {
		t.Fatalf("Got %d kinds, want 3:\n%s", len(kinds), spew.Sdump(kinds))
	}
	if !reflect.DeepEqual(kinds[1].Items, []string{"Sword", "Shield"}) {
		t.Errorf("Man_Unarmed Items = %v, want [Sword Shield]", kinds[1].Items)
	}
	if kinds[2].Name != "Woman" || !reflect.DeepEqual(kinds[2].Items, []string{"Bow"}) {
		t.Errorf("kind 2 = %q %v, want Woman [Bow]", kinds[2].Name, kinds[2].Items)
	}
	if kinds[0].Items != nil {
		t.Errorf("Catapult Items = %v, want none", kinds[0].Items)
	}
}

func TestSurroundingWhitespace(t *testing.T) {
	var b blob
	b.str("Catapult").record(t, MonsterLayout, model.KingdomMonster, 100)
	b.raw(0)
	b.str("Human").record(t, MonsterLayout, model.KingdomMonster, 999)
	b.str("Man_Unarmed").record(t, HumanLayout, model.KingdomHuman, 200)
	b.str("Club").raw(0)
	data := append([]byte(" \n"), b.Bytes()...)
	data = append(data, '\r', '\n', ' ')

	kinds, err := RecoverUnitKinds(data, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("RecoverUnitKinds failed: %v", err)
	}
	if len(kinds) != 2 {
		t.Fatalf("Got %d kinds, want 2:\n%s", len(kinds), spew.Sdump(kinds))
	}
	if human := kinds[1]; human.Name != "Man_Unarmed" || !reflect.DeepEqual(human.Items, []string{"Club"}) {
		t.Errorf("kind 1 = %q %v, want Man_Unarmed [Club]", human.Name, human.Items)
	}
}

func TestWrongKingdom(t *testing.T) {
	var b blob
	b.raw(0)
	b.str("Catapult").record(t, MonsterLayout, model.KingdomHuman, 1)

	_, err := RecoverUnitKinds(b.Bytes(), WithLogger(quietLogger()))
	if !errors.Is(err, errs.ErrWrongKingdom) {
		t.Fatalf("error = %v, want wrong kingdom", err)
	}
	var e *errs.Error
	if errors.As(err, &e) && e.Offset != 1 {
		t.Errorf("Offset = %d, want 1", e.Offset)
	}
}

func TestMissingAnchor(t *testing.T) {
	_, err := RecoverUnitKinds([]byte("no units here"))
	if !errors.Is(err, errs.ErrMissingAnchor) {
		t.Errorf("error = %v, want missing anchor", err)
	}

	var b blob
	b.raw(0)
	b.str("Catapult").record(t, MonsterLayout, model.KingdomMonster, 1).raw(0)
	b.str("Human").record(t, MonsterLayout, model.KingdomMonster, 2)
	_, err = RecoverUnitKinds(b.Bytes())
	if !errors.Is(err, errs.ErrMissingAnchor) {
		t.Errorf("error = %v, want missing anchor", err)
	}
}

func TestMalformedMonsterItem(t *testing.T) {
	var b blob
	b.raw(0)
	b.str("Catapult").record(t, MonsterLayout, model.KingdomMonster, 1)
	b.str("St\x00ne")

	_, err := RecoverUnitKinds(b.Bytes())
	if errs.CodeOf(err) != errs.MalformedString {
		t.Errorf("error = %v, want malformed string", err)
	}
}

func TestDuplicateServerID(t *testing.T) {
	kinds := []*model.UnitKind{
		{Name: "Orc", ServerID: 5},
		{Name: "Troll", ServerID: 6},
		{Name: "Ogre", ServerID: 5},
	}
	_, err := IndexUnitKinds(kinds)
	if !errors.Is(err, errs.ErrDuplicateServerID) {
		t.Fatalf("error = %v, want duplicate server id", err)
	}
	var e *errs.Error
	if errors.As(err, &e) && e.Record != 2 {
		t.Errorf("Record = %d, want 2", e.Record)
	}
}

func TestParseItemIDs(t *testing.T) {
	ids, err := ParseItemIDs([]byte{0x01, 0x0E, 0xFF, 0x00})
	if err != nil {
		t.Fatalf("ParseItemIDs failed: %v", err)
	}
	if !reflect.DeepEqual(ids, []uint32{0x0E01, 0x00FF}) {
		t.Errorf("ids = %v, want [0xE01 0xFF]", ids)
	}

	if _, err := ParseItemIDs([]byte{1, 2, 3}); !errors.Is(err, errs.ErrTruncated) {
		t.Errorf("odd length error = %v, want truncated", err)
	}
}

func TestParseLines(t *testing.T) {
	// "Меч" in Windows-1251
	text := []byte("Sword\r\n\xcc\xe5\xf7\r\nBow\r\n\r\n")
	lines, err := ParseLines(text)
	if err != nil {
		t.Fatalf("ParseLines failed: %v", err)
	}
	if want := []string{"Sword", "Меч", "Bow"}; !reflect.DeepEqual(lines, want) {
		t.Errorf("lines = %q, want %q", lines, want)
	}
}

func TestDecode(t *testing.T) {
	src := Sources{
		ItemIDs:    []byte{0x01, 0x0E, 0x02, 0x0E},
		ItemNames:  []byte("Club\nAxe\n"),
		SpellNames: []byte("Fire Arrow\nHealing\n"),
		UnitKinds:  sampleDataBin(t, false),
	}
	data, err := Decode(src, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if got := data.ItemName(0x0E02); got != "Axe" {
		t.Errorf("ItemName(0xE02) = %q, want Axe", got)
	}
	if got := data.SpellName(2); got != "Healing" {
		t.Errorf("SpellName(2) = %q, want Healing", got)
	}
	if got := data.UnitName(200); got != "Man_Unarmed" {
		t.Errorf("UnitName(200) = %q, want Man_Unarmed", got)
	}
	if got := data.UnitName(7); got != "(!failed to find unit: server_id=7)" {
		t.Errorf("UnitName(7) = %q", got)
	}
	if got := data.ModifierName(41); got != "damagebonus" {
		t.Errorf("ModifierName(41) = %q, want damagebonus", got)
	}

	src.ItemNames = []byte("Club\n")
	if _, err := Decode(src, WithLogger(quietLogger())); !errors.Is(err, errs.ErrCountMismatch) {
		t.Errorf("error = %v, want count mismatch", err)
	}
}
