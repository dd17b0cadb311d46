// Package engine recovers the game's engine data: the item id/name table,
// spell names and the unit-kind definitions embedded in data.bin.
package engine

import "github.com/dyuri/almconv/internal/layout"

// Anchors in data.bin. The first monster kind is the catapult; the "Human"
// monster entry is a placeholder after which human kinds start at the
// unarmed man.
const (
	firstMonsterName = "Catapult"
	humanMarkerName  = "Human"
	firstHumanName   = "Man_Unarmed"
)

const (
	resistances = 5
	skills      = 5
)

// MonsterLayout is the fixed part of a monster kind, following its name.
var MonsterLayout = layout.New("UnitMonster",
	layout.F("name", layout.Absent()),
	layout.F("kingdom", layout.U16()),
	layout.F("body", layout.U32()),
	layout.F("reaction", layout.U32()),
	layout.F("mind", layout.U32()),
	layout.F("spirit", layout.U32()),
	layout.F("hp", layout.U32()),
	layout.F("hp_regen", layout.U32()),
	layout.F("mana", layout.U32()),
	layout.F("mana_regen", layout.U32()),
	layout.F("speed", layout.U32()),
	layout.F("rotation_speed", layout.U32()),
	layout.F("scan_range", layout.U32()),
	layout.F("damage_min", layout.U32()),
	layout.F("damage_max", layout.U32()),
	layout.F("attack_type", layout.U32()),
	layout.F("attack", layout.U32()),
	layout.F("defence", layout.U32()),
	layout.F("armor", layout.U32()),
	layout.F("charge", layout.U32()),
	layout.F("relax", layout.U32()),
	layout.F("resist_magic", layout.FixedArray(layout.U32(), resistances)),
	layout.F("resist_weapon", layout.FixedArray(layout.U32(), resistances)),
	layout.F("type_id", layout.U32()),
	layout.F("face", layout.U32()),
	layout.F("token_size", layout.U32()),
	layout.F("movement_type", layout.U32()),
	layout.F("dying_time", layout.U32()),
	layout.F("withdraw", layout.U32()),
	layout.F("wimpy", layout.U32()),
	layout.F("detection_range", layout.U32()),
	layout.F("experience", layout.U32()),
	layout.F("gold", layout.U32()),
	layout.F("gold_min", layout.U32()),
	layout.F("gold_max", layout.U32()),
	layout.F("drop", layout.U32()),
	layout.F("drop_price_min", layout.U32()),
	layout.F("drop_price_max", layout.U32()),
	layout.F("drop_mask", layout.Hex32()),
	layout.F("something_27", layout.U32()),
	layout.F("something_28", layout.U32()),
	layout.F("power", layout.U32()),
	layout.F("spell_1", layout.U32()),
	layout.F("spell_probability_1", layout.U32()),
	layout.F("spell_2", layout.U32()),
	layout.F("spell_probability_2", layout.U32()),
	layout.F("spell_3", layout.U32()),
	layout.F("spell_probability_3", layout.U32()),
	layout.F("spell_power", layout.U32()),
	layout.F("server_id", layout.U32()),
	layout.F("known_spells", layout.Hex32()),
	layout.F("skills", layout.FixedArray(layout.U32(), skills)),
	layout.F("items", layout.Absent()),
)

// HumanLayout is the fixed part of a human kind, following its name.
var HumanLayout = layout.New("UnitHuman",
	layout.F("name", layout.Absent()),
	layout.F("kingdom", layout.U16()),
	layout.F("body", layout.U32()),
	layout.F("reaction", layout.U32()),
	layout.F("mind", layout.U32()),
	layout.F("spirit", layout.U32()),
	layout.F("hp", layout.U32()),
	layout.F("mana", layout.U32()),
	layout.F("speed", layout.U32()),
	layout.F("rotation_speed", layout.U32()),
	layout.F("scan_range", layout.U32()),
	layout.F("defence", layout.U32()),
	layout.F("main_skill", layout.U32()),
	layout.F("skills", layout.FixedArray(layout.U32(), skills)),
	layout.F("type_id", layout.U32()),
	layout.F("face", layout.U32()),
	layout.F("gender", layout.U32()),
	layout.F("charge_time", layout.U32()),
	layout.F("relax_time", layout.U32()),
	layout.F("token_size", layout.U32()),
	layout.F("movement_type", layout.U32()),
	layout.F("dying_time", layout.U32()),
	layout.F("server_id", layout.U32()),
	layout.F("known_spells", layout.Hex32()),
	layout.F("items", layout.Absent()),
)

// itemModifiers names the stat each item modifier id affects.
var itemModifiers = []string{
	"none",
	"price",
	"body",
	"mind",
	"reaction",
	"spirit",
	"health",
	"healthmax",
	"healthregeneration",
	"mana",
	"manamax",
	"manaregeneration",
	"tohit",
	"damagemin",
	"damagemax",
	"defence",
	"absorbtion",
	"speed",
	"rotationspeed",
	"scanrange",
	"protection0",
	"protectionfire",
	"protectionwater",
	"protectionair",
	"protectionearth",
	"protectionastral",
	"fighterskill0",
	"skillblade",
	"skillaxe",
	"skillbludgeon",
	"skillpike",
	"skillshooting",
	"mageskill0",
	"skillfire",
	"skillwater",
	"skillair",
	"skillearth",
	"skillastral",
	"itemlore",
	"magiclore",
	"creaturelore",
	"damagebonus",
}

// ItemModifiers returns a copy of the item modifier names, indexed by id.
func ItemModifiers() []string {
	return append([]string(nil), itemModifiers...)
}
