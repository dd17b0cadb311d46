package binary

import "github.com/dyuri/almconv/internal/layout"

// Container constants.
const (
	Signature = "M7R\x00"
	Version   = 1600
)

// Defaults used when a map carries no FileMeta.
const (
	defaultAlmSize          = 20
	defaultSevenOrFive      = 7
	defaultSectionSignature = 0xBEEFBEEF
)

// Section ids.
const (
	SectionInfo      = 0
	SectionTiles     = 1
	SectionHeights   = 2
	SectionObjects   = 3
	SectionBuildings = 4
	SectionPlayers   = 5
	SectionUnits     = 6
	SectionLogics    = 7
	SectionBags      = 8
	SectionEffects   = 9
	SectionGroups    = 10
	SectionShops     = 11
	SectionMusic     = 12
)

// defaultSectionOrder is the order the stock editor writes sections in.
var defaultSectionOrder = []uint32{
	SectionInfo, SectionTiles, SectionHeights, SectionObjects, SectionPlayers,
	SectionShops, SectionBuildings, SectionEffects, SectionBags, SectionUnits,
	SectionLogics, SectionGroups, SectionMusic,
}

var headerLayout = layout.New("Header",
	layout.F("signature", layout.FixedBytes(4)),
	layout.F("alm_size", layout.U32()),
	layout.F("reserved", layout.U32()),
	layout.F("num_sections", layout.U32()),
	layout.F("version", layout.U32()),
)

var sectionHeaderLayout = layout.New("SectionHeader",
	layout.F("seven_or_five", layout.U32()),
	layout.F("alm_size", layout.U32()),
	layout.F("section_size", layout.U32()),
	layout.F("id", layout.U32()),
	layout.F("signature", layout.Hex32()),
)

var infoLayout = layout.New("Info",
	layout.F("width", layout.U32()),
	layout.F("height", layout.U32()),
	layout.F("sun_angle", layout.U32()),
	layout.F("time_of_day", layout.U32()),
	layout.F("darkness", layout.U32()),
	layout.F("contrast", layout.U32()),
	layout.F("use_tiles", layout.U32()),
	layout.F("num_players", layout.U32()),
	layout.F("num_buildings", layout.U32()),
	layout.F("num_units", layout.U32()),
	layout.F("num_logic", layout.U32()),
	layout.F("num_bags", layout.U32()),
	layout.F("num_groups", layout.U32()),
	layout.F("num_inns", layout.U32()),
	layout.F("num_shops", layout.U32()),
	layout.F("num_signs", layout.U32()),
	layout.F("num_music", layout.U32()),
	layout.F("map_name", layout.FixedText(64)),
	layout.F("recommended_players", layout.U32()),
	layout.F("map_level", layout.U32()),
	layout.F("something_1", layout.U32()),
	layout.F("something_2", layout.U32()),
	layout.F("author_name", layout.FixedText(512)),
)

var tileLayout = layout.New("Tile",
	layout.F("tile", layout.Hex16()),
)

var heightLayout = layout.New("Height",
	layout.F("height", layout.U8()),
)

var objectLayout = layout.New("Object",
	layout.F("object_id", layout.U8()),
)

var buildingLayout = layout.New("Building",
	layout.F("x", layout.U32()),
	layout.F("y", layout.U32()),
	layout.F("type_id", layout.U32()),
	layout.F("health", layout.U16()),
	layout.F("player", layout.U32()),
	layout.F("building_id", layout.U16()),
	layout.F("bridge", layout.Absent()),
).WithCoordinates("x", "y")

var bridgeSizeLayout = layout.New("BridgeSize",
	layout.F("bridge_width", layout.U32()),
	layout.F("bridge_height", layout.U32()),
)

var playerLayout = layout.New("Player",
	layout.F("color", layout.U32()),
	layout.F("flags", layout.Hex32()),
	layout.F("money", layout.U32()),
	layout.F("name", layout.FixedText(32)),
	layout.F("diplomacy", layout.FixedArray(layout.Hex16(), 16)),
)

var unitLayout = layout.New("Unit",
	layout.F("x", layout.U32()),
	layout.F("y", layout.U32()),
	layout.F("type_id", layout.U16()),
	layout.F("face", layout.U16()),
	layout.F("flags", layout.Hex32()),
	layout.F("more_flags", layout.Hex32()),
	layout.F("server_id", layout.U32()),
	layout.F("player_id", layout.U32()),
	layout.F("bag_id", layout.U32()),
	layout.F("rotation", layout.U32()),
	layout.F("hp", layout.U16()),
	layout.F("max_hp", layout.U16()),
	layout.F("unit_id", layout.U16()),
	layout.F("something_3", layout.Hex16()),
	layout.F("group_id", layout.U32()),
).WithCoordinates("x", "y")

// countLayout is the u32 prefix of self-describing runs.
var countLayout = layout.New("Count",
	layout.F("count", layout.U32()),
)

const instanceArgs = 10

var instanceLayout = layout.New("Instance",
	layout.F("name", layout.FixedText(64)),
	layout.F("type_id", layout.U32()),
	layout.F("index", layout.U32()),
	layout.F("execute_once", layout.U32()),
	layout.F("arg_value", layout.FixedArray(layout.U32(), instanceArgs)),
	layout.F("arg_type", layout.FixedArray(layout.U32(), instanceArgs)),
	layout.F("arg_name", layout.FixedArray(layout.FixedText(64), instanceArgs)),
)

var triggerLayout = layout.New("Trigger",
	layout.F("name", layout.FixedText(128)),
	layout.F("check_ids", layout.FixedArray(layout.U32(), 6)),
	layout.F("instance_ids", layout.FixedArray(layout.U32(), 4)),
	layout.F("check_operators", layout.FixedArray(layout.U32(), 3)),
	layout.F("execute_once", layout.U32()),
)

var bagLayout = layout.New("Bag",
	layout.F("num_items", layout.U32()),
	layout.F("unit_id", layout.U32()),
	layout.F("x", layout.U32()),
	layout.F("y", layout.U32()),
	layout.F("gold", layout.U32()),
	layout.F("items", layout.Absent()),
).WithCoordinates("x", "y")

var bagItemLayout = layout.New("BagItem",
	layout.F("item_id", layout.Hex32()),
	layout.F("wielded", layout.U16()),
	layout.F("effect", layout.U32()),
)

var effectLayout = layout.New("Effect",
	layout.F("range", layout.U32()),
	layout.F("x", layout.U32()),
	layout.F("y", layout.U32()),
	layout.F("magic_type", layout.U16()),
	layout.F("min_magic_damage", layout.U16()),
	layout.F("max_magic_damage", layout.U16()),
	layout.F("spell_type_id", layout.U16()),
	layout.F("spell_power", layout.U16()),
	layout.F("num_modifiers", layout.U32()),
	layout.F("modifiers", layout.Absent()),
)

var effectModifierLayout = layout.New("EffectModifier",
	layout.F("x", layout.U16()),
	layout.F("y", layout.U16()),
	layout.F("flags", layout.U16()),
)

var groupLayout = layout.New("Group",
	layout.F("group_id", layout.U32()),
	layout.F("repop_time", layout.U32()),
	layout.F("flags", layout.Hex32()),
	layout.F("instance_id", layout.U32()),
)

var innLayout = layout.New("Inn",
	layout.F("inn_id", layout.U32()),
	layout.F("flags", layout.Hex32()),
	layout.F("delivery_item_id", layout.Hex32()),
)

const shopShelves = 4

var shopLayout = layout.New("Shop",
	layout.F("shop_id", layout.U32()),
	layout.F("shelf_flags", layout.FixedArray(layout.Hex32(), shopShelves)),
	layout.F("min_price", layout.FixedArray(layout.U32(), shopShelves)),
	layout.F("max_price", layout.FixedArray(layout.U32(), shopShelves)),
	layout.F("max_items", layout.FixedArray(layout.U32(), shopShelves)),
	layout.F("max_same_type_items", layout.FixedArray(layout.U32(), shopShelves)),
)

var signLayout = layout.New("Sign",
	layout.F("sign_id", layout.U32()),
	layout.F("flags", layout.Hex32()),
	layout.F("instance_id", layout.U32()),
)

var musicLayout = layout.New("Music",
	layout.F("x", layout.U32()),
	layout.F("y", layout.U32()),
	layout.F("radius", layout.U32()),
	layout.F("melody_type_id", layout.FixedArray(layout.U32(), 4)),
)
