package model

// Map represents a complete decoded .alm map. Every collection is owned by
// the Map; records never alias each other.
type Map struct {
	File      FileMeta   `json:"file"`
	Info      Info       `json:"info"`
	Tiles     []Hex16    `json:"tiles"`   // One terrain tile per cell, row-major
	Heights   []uint8    `json:"heights"` // One height per cell
	Objects   []uint8    `json:"objects"` // One object id per cell
	Buildings []Building `json:"buildings"`
	Players   []Player   `json:"players"` // Index i holds player_id i+1
	Units     []Unit     `json:"units"`
	Instances []Instance `json:"instances"`
	Checks    []Instance `json:"checks"`
	Triggers  []Trigger  `json:"triggers"`
	Bags      []Bag      `json:"bags"`
	Effects   []Effect   `json:"effects"`
	Groups    []Group    `json:"groups"`
	Inns      []Inn      `json:"inns"`
	Shops     []Shop     `json:"shops"`
	Signs     []Sign     `json:"signs"`
	Music     []Music    `json:"music"` // Always Info.NumMusic+1 entries in a decoded map
}

// FileMeta keeps the container-level values needed to reproduce a file
// byte for byte. A zero FileMeta encodes with the stock defaults.
type FileMeta struct {
	AlmSize          uint32        `json:"alm_size"`
	Reserved         uint32        `json:"reserved"`
	SectionSignature Hex32         `json:"section_signature"`
	Sections         []SectionMeta `json:"sections"` // Sections in file order
}

// SectionMeta is the per-section header data that is not derived.
type SectionMeta struct {
	ID          uint32 `json:"id"`
	SevenOrFive uint32 `json:"seven_or_five"`
	AlmSize     uint32 `json:"alm_size"`
}

// Info is the global map header (section 0). The Num* fields are derived
// from the collections and rewritten on every encode.
type Info struct {
	Width              uint32 `json:"width"`
	Height             uint32 `json:"height"`
	SunAngle           uint32 `json:"sun_angle"`
	TimeOfDay          uint32 `json:"time_of_day"`
	Darkness           uint32 `json:"darkness"`
	Contrast           uint32 `json:"contrast"`
	UseTiles           uint32 `json:"use_tiles"`
	NumPlayers         uint32 `json:"num_players"`
	NumBuildings       uint32 `json:"num_buildings"`
	NumUnits           uint32 `json:"num_units"`
	NumLogic           uint32 `json:"num_logic"` // Instances + checks + triggers
	NumBags            uint32 `json:"num_bags"`
	NumGroups          uint32 `json:"num_groups"`
	NumInns            uint32 `json:"num_inns"`
	NumShops           uint32 `json:"num_shops"`
	NumSigns           uint32 `json:"num_signs"`
	NumMusic           uint32 `json:"num_music"` // One less than the number of music records
	MapName            string `json:"map_name"`
	RecommendedPlayers uint32 `json:"recommended_players"`
	MapLevel           uint32 `json:"map_level"`
	Something1         uint32 `json:"something_1"`
	Something2         uint32 `json:"something_2"`
	AuthorName         string `json:"author_name"`
}

// BridgeFlag marks bridge-class building types; such buildings carry a
// BridgeSize sub-record.
const BridgeFlag = 0x1000000

// Building is a placed structure (section 4).
type Building struct {
	X          uint32      `json:"x"`
	Y          uint32      `json:"y"`
	TypeID     uint32      `json:"type_id"`
	Health     uint16      `json:"health"`
	Player     uint32      `json:"player"` // One-based player id
	BuildingID uint16      `json:"building_id"`
	Bridge     *BridgeSize `json:"bridge,omitempty"` // Present iff TypeID has BridgeFlag
}

// IsBridge reports whether the building type carries bridge dimensions.
func (b Building) IsBridge() bool {
	return b.TypeID&BridgeFlag != 0
}

// BridgeSize is the conditional tail of a bridge building.
type BridgeSize struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// Diplomacy flags.
const (
	DiplomacyEnemy  = 0x1
	DiplomacyFriend = 0x2
	DiplomacyVision = 0x10
)

// Player is one map participant (section 5).
type Player struct {
	Color     uint32  `json:"color"`
	Flags     Hex32   `json:"flags"`
	Money     uint32  `json:"money"`
	Name      string  `json:"name"`
	Diplomacy []Hex16 `json:"diplomacy"` // 16 entries; index i is the stance toward player i+1
}

// DiplomacyWith returns the stance toward the player with one-based id.
func (p Player) DiplomacyWith(playerID int) Hex16 {
	if playerID < 1 || playerID > len(p.Diplomacy) {
		return 0
	}
	return p.Diplomacy[playerID-1]
}

// Unit is a placed creature (section 6).
type Unit struct {
	X          uint32 `json:"x"`
	Y          uint32 `json:"y"`
	TypeID     uint16 `json:"type_id"`
	Face       uint16 `json:"face"`
	Flags      Hex32  `json:"flags"`
	MoreFlags  Hex32  `json:"more_flags"`
	ServerID   uint32 `json:"server_id"` // Unit kind, see EngineData.UnitKinds
	PlayerID   uint32 `json:"player_id"`
	BagID      uint32 `json:"bag_id"` // One-based index into Map.Bags, 0 for none
	Rotation   uint32 `json:"rotation"`
	HP         uint16 `json:"hp"`
	MaxHP      uint16 `json:"max_hp"`
	UnitID     uint16 `json:"unit_id"`
	Something3 Hex16  `json:"something_3"`
	GroupID    uint32 `json:"group_id"`
}

// Instance is a scripted action or check (section 7). Checks share the
// record shape. Arguments are positional (type, value) pairs that the map
// codec preserves without interpreting.
type Instance struct {
	Name        string   `json:"name"`
	TypeID      uint32   `json:"type_id"`
	Index       uint32   `json:"index"` // Unique within its kind
	ExecuteOnce uint32   `json:"execute_once"`
	ArgValues   []uint32 `json:"arg_value"` // 10 entries
	ArgTypes    []uint32 `json:"arg_type"`  // 10 entries
	ArgNames    []string `json:"arg_name"`  // 10 entries
}

// Trigger pairs checks with instances (section 7).
type Trigger struct {
	Name           string   `json:"name"`
	CheckIDs       []uint32 `json:"check_ids"`       // 6 entries: three (left, right) pairs
	InstanceIDs    []uint32 `json:"instance_ids"`    // 4 entries
	CheckOperators []uint32 `json:"check_operators"` // 3 entries, one per pair
	ExecuteOnce    uint32   `json:"execute_once"`
}

// Bag is a unit inventory (section 8).
type Bag struct {
	UnitID uint32    `json:"unit_id"`
	X      uint32    `json:"x"`
	Y      uint32    `json:"y"`
	Gold   uint32    `json:"gold"`
	Items  []BagItem `json:"items"`
}

// BagItem is one entry of a Bag.
type BagItem struct {
	ItemID  Hex32  `json:"item_id"`
	Wielded uint16 `json:"wielded"`
	Effect  uint32 `json:"effect"` // One-based index into Map.Effects, 0 for none
}

// Effect is a magic effect (section 9). X and Y are raw positions; X == 0
// marks an effect that is not placed on the map.
type Effect struct {
	Range          uint32           `json:"range"`
	X              uint32           `json:"x"`
	Y              uint32           `json:"y"`
	MagicType      uint16           `json:"magic_type"`
	MinMagicDamage uint16           `json:"min_magic_damage"`
	MaxMagicDamage uint16           `json:"max_magic_damage"`
	SpellTypeID    uint16           `json:"spell_type_id"`
	SpellPower     uint16           `json:"spell_power"`
	Modifiers      []EffectModifier `json:"modifiers,omitempty"` // Either empty or exactly two
}

// EffectModifier is one stat modifier of an Effect.
type EffectModifier struct {
	X     uint16 `json:"x"`
	Y     uint16 `json:"y"`
	Flags uint16 `json:"flags"`
}

// Group controls respawn of a unit group (section 10).
type Group struct {
	GroupID    uint32 `json:"group_id"`
	RepopTime  uint32 `json:"repop_time"`
	Flags      Hex32  `json:"flags"`
	InstanceID uint32 `json:"instance_id"`
}

// Inn (section 11).
type Inn struct {
	InnID          uint32 `json:"inn_id"`
	Flags          Hex32  `json:"flags"`
	DeliveryItemID Hex32  `json:"delivery_item_id"`
}

// Shop (section 11). Every slice has 4 entries, one per shelf.
type Shop struct {
	ShopID           uint32   `json:"shop_id"`
	ShelfFlags       []Hex32  `json:"shelf_flags"`
	MinPrice         []uint32 `json:"min_price"`
	MaxPrice         []uint32 `json:"max_price"`
	MaxItems         []uint32 `json:"max_items"`
	MaxSameTypeItems []uint32 `json:"max_same_type_items"`
}

// Sign (section 11).
type Sign struct {
	SignID     uint32 `json:"sign_id"`
	Flags      Hex32  `json:"flags"`
	InstanceID uint32 `json:"instance_id"`
}

// Music is an ambient music area (section 12).
type Music struct {
	X            uint32   `json:"x"`
	Y            uint32   `json:"y"`
	Radius       uint32   `json:"radius"`
	MelodyTypeID []uint32 `json:"melody_type_id"` // 4 entries
}

// NewMap creates an empty map.
func NewMap() *Map {
	return &Map{}
}

// DerivedInfo returns a copy of m.Info with every count field recomputed
// from the live collections.
func (m *Map) DerivedInfo() Info {
	info := m.Info
	info.NumPlayers = uint32(len(m.Players))
	info.NumBuildings = uint32(len(m.Buildings))
	info.NumUnits = uint32(len(m.Units))
	info.NumLogic = uint32(len(m.Instances) + len(m.Checks) + len(m.Triggers))
	info.NumBags = uint32(len(m.Bags))
	info.NumGroups = uint32(len(m.Groups))
	info.NumInns = uint32(len(m.Inns))
	info.NumShops = uint32(len(m.Shops))
	info.NumSigns = uint32(len(m.Signs))
	info.NumMusic = 0
	if len(m.Music) > 0 {
		info.NumMusic = uint32(len(m.Music) - 1)
	}
	return info
}

// Instance returns the instance with the given index.
func (m *Map) Instance(index uint32) (*Instance, bool) {
	return findIndex(m.Instances, index)
}

// Check returns the check with the given index.
func (m *Map) Check(index uint32) (*Instance, bool) {
	return findIndex(m.Checks, index)
}

func findIndex(list []Instance, index uint32) (*Instance, bool) {
	for i := range list {
		if list[i].Index == index {
			return &list[i], true
		}
	}
	return nil, false
}

// Bag returns the bag referenced by a one-based bag id.
func (m *Map) Bag(bagID uint32) (*Bag, bool) {
	if bagID == 0 || int(bagID) > len(m.Bags) {
		return nil, false
	}
	return &m.Bags[bagID-1], true
}
