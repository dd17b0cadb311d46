package binary

import (
	"github.com/dyuri/almconv/internal/layout"
	"github.com/dyuri/almconv/internal/model"
)

// Conversions between decoded records and the typed map model. Widths are
// checked by the record codec on encode; a decoded value always fits the
// model field it lands in.

func infoFromRecord(r layout.Record) model.Info {
	return model.Info{
		Width:              r.Uint("width"),
		Height:             r.Uint("height"),
		SunAngle:           r.Uint("sun_angle"),
		TimeOfDay:          r.Uint("time_of_day"),
		Darkness:           r.Uint("darkness"),
		Contrast:           r.Uint("contrast"),
		UseTiles:           r.Uint("use_tiles"),
		NumPlayers:         r.Uint("num_players"),
		NumBuildings:       r.Uint("num_buildings"),
		NumUnits:           r.Uint("num_units"),
		NumLogic:           r.Uint("num_logic"),
		NumBags:            r.Uint("num_bags"),
		NumGroups:          r.Uint("num_groups"),
		NumInns:            r.Uint("num_inns"),
		NumShops:           r.Uint("num_shops"),
		NumSigns:           r.Uint("num_signs"),
		NumMusic:           r.Uint("num_music"),
		MapName:            r.Text("map_name"),
		RecommendedPlayers: r.Uint("recommended_players"),
		MapLevel:           r.Uint("map_level"),
		Something1:         r.Uint("something_1"),
		Something2:         r.Uint("something_2"),
		AuthorName:         r.Text("author_name"),
	}
}

func infoRecord(i model.Info) layout.Record {
	r := infoLayout.NewRecord()
	r.SetUint("width", i.Width)
	r.SetUint("height", i.Height)
	r.SetUint("sun_angle", i.SunAngle)
	r.SetUint("time_of_day", i.TimeOfDay)
	r.SetUint("darkness", i.Darkness)
	r.SetUint("contrast", i.Contrast)
	r.SetUint("use_tiles", i.UseTiles)
	r.SetUint("num_players", i.NumPlayers)
	r.SetUint("num_buildings", i.NumBuildings)
	r.SetUint("num_units", i.NumUnits)
	r.SetUint("num_logic", i.NumLogic)
	r.SetUint("num_bags", i.NumBags)
	r.SetUint("num_groups", i.NumGroups)
	r.SetUint("num_inns", i.NumInns)
	r.SetUint("num_shops", i.NumShops)
	r.SetUint("num_signs", i.NumSigns)
	r.SetUint("num_music", i.NumMusic)
	r.SetText("map_name", i.MapName)
	r.SetUint("recommended_players", i.RecommendedPlayers)
	r.SetUint("map_level", i.MapLevel)
	r.SetUint("something_1", i.Something1)
	r.SetUint("something_2", i.Something2)
	r.SetText("author_name", i.AuthorName)
	return r
}

func buildingFromRecord(r layout.Record) model.Building {
	return model.Building{
		X:          r.Uint("x"),
		Y:          r.Uint("y"),
		TypeID:     r.Uint("type_id"),
		Health:     uint16(r.Uint("health")),
		Player:     r.Uint("player"),
		BuildingID: uint16(r.Uint("building_id")),
	}
}

func buildingRecord(b model.Building) layout.Record {
	r := buildingLayout.NewRecord()
	r.SetUint("x", b.X)
	r.SetUint("y", b.Y)
	r.SetUint("type_id", b.TypeID)
	r.SetUint("health", uint32(b.Health))
	r.SetUint("player", b.Player)
	r.SetUint("building_id", uint32(b.BuildingID))
	return r
}

func bridgeRecord(b model.BridgeSize) layout.Record {
	r := bridgeSizeLayout.NewRecord()
	r.SetUint("bridge_width", b.Width)
	r.SetUint("bridge_height", b.Height)
	return r
}

func playerFromRecord(r layout.Record) model.Player {
	return model.Player{
		Color:     r.Uint("color"),
		Flags:     model.Hex32(r.Uint("flags")),
		Money:     r.Uint("money"),
		Name:      r.Text("name"),
		Diplomacy: toHex16(r.Uints("diplomacy")),
	}
}

func playerRecord(p model.Player) layout.Record {
	r := playerLayout.NewRecord()
	r.SetUint("color", p.Color)
	r.SetUint("flags", uint32(p.Flags))
	r.SetUint("money", p.Money)
	r.SetText("name", p.Name)
	r.SetUints("diplomacy", fromHex16(p.Diplomacy))
	return r
}

func unitFromRecord(r layout.Record) model.Unit {
	return model.Unit{
		X:          r.Uint("x"),
		Y:          r.Uint("y"),
		TypeID:     uint16(r.Uint("type_id")),
		Face:       uint16(r.Uint("face")),
		Flags:      model.Hex32(r.Uint("flags")),
		MoreFlags:  model.Hex32(r.Uint("more_flags")),
		ServerID:   r.Uint("server_id"),
		PlayerID:   r.Uint("player_id"),
		BagID:      r.Uint("bag_id"),
		Rotation:   r.Uint("rotation"),
		HP:         uint16(r.Uint("hp")),
		MaxHP:      uint16(r.Uint("max_hp")),
		UnitID:     uint16(r.Uint("unit_id")),
		Something3: model.Hex16(r.Uint("something_3")),
		GroupID:    r.Uint("group_id"),
	}
}

func unitRecord(u model.Unit) layout.Record {
	r := unitLayout.NewRecord()
	r.SetUint("x", u.X)
	r.SetUint("y", u.Y)
	r.SetUint("type_id", uint32(u.TypeID))
	r.SetUint("face", uint32(u.Face))
	r.SetUint("flags", uint32(u.Flags))
	r.SetUint("more_flags", uint32(u.MoreFlags))
	r.SetUint("server_id", u.ServerID)
	r.SetUint("player_id", u.PlayerID)
	r.SetUint("bag_id", u.BagID)
	r.SetUint("rotation", u.Rotation)
	r.SetUint("hp", uint32(u.HP))
	r.SetUint("max_hp", uint32(u.MaxHP))
	r.SetUint("unit_id", uint32(u.UnitID))
	r.SetUint("something_3", uint32(u.Something3))
	r.SetUint("group_id", u.GroupID)
	return r
}

func countRecord(n int) layout.Record {
	r := countLayout.NewRecord()
	r.SetUint("count", uint32(n))
	return r
}

func instanceFromRecord(r layout.Record) model.Instance {
	return model.Instance{
		Name:        r.Text("name"),
		TypeID:      r.Uint("type_id"),
		Index:       r.Uint("index"),
		ExecuteOnce: r.Uint("execute_once"),
		ArgValues:   r.Uints("arg_value"),
		ArgTypes:    r.Uints("arg_type"),
		ArgNames:    r.Texts("arg_name"),
	}
}

func instanceRecord(i model.Instance) layout.Record {
	r := instanceLayout.NewRecord()
	r.SetText("name", i.Name)
	r.SetUint("type_id", i.TypeID)
	r.SetUint("index", i.Index)
	r.SetUint("execute_once", i.ExecuteOnce)
	r.SetUints("arg_value", i.ArgValues)
	r.SetUints("arg_type", i.ArgTypes)
	r.SetTexts("arg_name", i.ArgNames)
	return r
}

func triggerFromRecord(r layout.Record) model.Trigger {
	return model.Trigger{
		Name:           r.Text("name"),
		CheckIDs:       r.Uints("check_ids"),
		InstanceIDs:    r.Uints("instance_ids"),
		CheckOperators: r.Uints("check_operators"),
		ExecuteOnce:    r.Uint("execute_once"),
	}
}

func triggerRecord(t model.Trigger) layout.Record {
	r := triggerLayout.NewRecord()
	r.SetText("name", t.Name)
	r.SetUints("check_ids", t.CheckIDs)
	r.SetUints("instance_ids", t.InstanceIDs)
	r.SetUints("check_operators", t.CheckOperators)
	r.SetUint("execute_once", t.ExecuteOnce)
	return r
}

func bagFromRecord(r layout.Record) model.Bag {
	return model.Bag{
		UnitID: r.Uint("unit_id"),
		X:      r.Uint("x"),
		Y:      r.Uint("y"),
		Gold:   r.Uint("gold"),
	}
}

func bagRecord(b model.Bag) layout.Record {
	r := bagLayout.NewRecord()
	r.SetUint("num_items", uint32(len(b.Items)))
	r.SetUint("unit_id", b.UnitID)
	r.SetUint("x", b.X)
	r.SetUint("y", b.Y)
	r.SetUint("gold", b.Gold)
	return r
}

func bagItemFromRecord(r layout.Record) model.BagItem {
	return model.BagItem{
		ItemID:  model.Hex32(r.Uint("item_id")),
		Wielded: uint16(r.Uint("wielded")),
		Effect:  r.Uint("effect"),
	}
}

func bagItemRecord(i model.BagItem) layout.Record {
	r := bagItemLayout.NewRecord()
	r.SetUint("item_id", uint32(i.ItemID))
	r.SetUint("wielded", uint32(i.Wielded))
	r.SetUint("effect", i.Effect)
	return r
}

func effectFromRecord(r layout.Record) model.Effect {
	return model.Effect{
		Range:          r.Uint("range"),
		X:              r.Uint("x"),
		Y:              r.Uint("y"),
		MagicType:      uint16(r.Uint("magic_type")),
		MinMagicDamage: uint16(r.Uint("min_magic_damage")),
		MaxMagicDamage: uint16(r.Uint("max_magic_damage")),
		SpellTypeID:    uint16(r.Uint("spell_type_id")),
		SpellPower:     uint16(r.Uint("spell_power")),
	}
}

func effectRecord(e model.Effect) layout.Record {
	r := effectLayout.NewRecord()
	r.SetUint("range", e.Range)
	r.SetUint("x", e.X)
	r.SetUint("y", e.Y)
	r.SetUint("magic_type", uint32(e.MagicType))
	r.SetUint("min_magic_damage", uint32(e.MinMagicDamage))
	r.SetUint("max_magic_damage", uint32(e.MaxMagicDamage))
	r.SetUint("spell_type_id", uint32(e.SpellTypeID))
	r.SetUint("spell_power", uint32(e.SpellPower))
	r.SetUint("num_modifiers", uint32(len(e.Modifiers)))
	return r
}

func modifierFromRecord(r layout.Record) model.EffectModifier {
	return model.EffectModifier{
		X:     uint16(r.Uint("x")),
		Y:     uint16(r.Uint("y")),
		Flags: uint16(r.Uint("flags")),
	}
}

func modifierRecord(m model.EffectModifier) layout.Record {
	r := effectModifierLayout.NewRecord()
	r.SetUint("x", uint32(m.X))
	r.SetUint("y", uint32(m.Y))
	r.SetUint("flags", uint32(m.Flags))
	return r
}

func groupFromRecord(r layout.Record) model.Group {
	return model.Group{
		GroupID:    r.Uint("group_id"),
		RepopTime:  r.Uint("repop_time"),
		Flags:      model.Hex32(r.Uint("flags")),
		InstanceID: r.Uint("instance_id"),
	}
}

func groupRecord(g model.Group) layout.Record {
	r := groupLayout.NewRecord()
	r.SetUint("group_id", g.GroupID)
	r.SetUint("repop_time", g.RepopTime)
	r.SetUint("flags", uint32(g.Flags))
	r.SetUint("instance_id", g.InstanceID)
	return r
}

func innFromRecord(r layout.Record) model.Inn {
	return model.Inn{
		InnID:          r.Uint("inn_id"),
		Flags:          model.Hex32(r.Uint("flags")),
		DeliveryItemID: model.Hex32(r.Uint("delivery_item_id")),
	}
}

func innRecord(i model.Inn) layout.Record {
	r := innLayout.NewRecord()
	r.SetUint("inn_id", i.InnID)
	r.SetUint("flags", uint32(i.Flags))
	r.SetUint("delivery_item_id", uint32(i.DeliveryItemID))
	return r
}

func shopFromRecord(r layout.Record) model.Shop {
	return model.Shop{
		ShopID:           r.Uint("shop_id"),
		ShelfFlags:       toHex32(r.Uints("shelf_flags")),
		MinPrice:         r.Uints("min_price"),
		MaxPrice:         r.Uints("max_price"),
		MaxItems:         r.Uints("max_items"),
		MaxSameTypeItems: r.Uints("max_same_type_items"),
	}
}

func shopRecord(s model.Shop) layout.Record {
	r := shopLayout.NewRecord()
	r.SetUint("shop_id", s.ShopID)
	r.SetUints("shelf_flags", fromHex32(s.ShelfFlags))
	r.SetUints("min_price", s.MinPrice)
	r.SetUints("max_price", s.MaxPrice)
	r.SetUints("max_items", s.MaxItems)
	r.SetUints("max_same_type_items", s.MaxSameTypeItems)
	return r
}

func signFromRecord(r layout.Record) model.Sign {
	return model.Sign{
		SignID:     r.Uint("sign_id"),
		Flags:      model.Hex32(r.Uint("flags")),
		InstanceID: r.Uint("instance_id"),
	}
}

func signRecord(s model.Sign) layout.Record {
	r := signLayout.NewRecord()
	r.SetUint("sign_id", s.SignID)
	r.SetUint("flags", uint32(s.Flags))
	r.SetUint("instance_id", s.InstanceID)
	return r
}

func musicFromRecord(r layout.Record) model.Music {
	return model.Music{
		X:            r.Uint("x"),
		Y:            r.Uint("y"),
		Radius:       r.Uint("radius"),
		MelodyTypeID: r.Uints("melody_type_id"),
	}
}

func musicRecord(m model.Music) layout.Record {
	r := musicLayout.NewRecord()
	r.SetUint("x", m.X)
	r.SetUint("y", m.Y)
	r.SetUint("radius", m.Radius)
	r.SetUints("melody_type_id", m.MelodyTypeID)
	return r
}

func toHex16(vs []uint32) []model.Hex16 {
	out := make([]model.Hex16, len(vs))
	for i, v := range vs {
		out[i] = model.Hex16(v)
	}
	return out
}

func fromHex16(vs []model.Hex16) []uint32 {
	out := make([]uint32, len(vs))
	for i, v := range vs {
		out[i] = uint32(v)
	}
	return out
}

func toHex32(vs []uint32) []model.Hex32 {
	out := make([]model.Hex32, len(vs))
	for i, v := range vs {
		out[i] = model.Hex32(v)
	}
	return out
}

func fromHex32(vs []model.Hex32) []uint32 {
	out := make([]uint32, len(vs))
	for i, v := range vs {
		out[i] = uint32(v)
	}
	return out
}
