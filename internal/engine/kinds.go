package engine

import (
	"bytes"

	"github.com/dyuri/almconv/internal/errs"
	"github.com/dyuri/almconv/internal/layout"
	"github.com/dyuri/almconv/internal/model"
	"github.com/sirupsen/logrus"
)

// The sentinel that ends a human item list is the kingdom field of the next
// human kind (26, little-endian u16) right after that kind's name.
var humanKingdomBytes = []byte{model.KingdomHuman, 0x00}

// exhaustedItemLen is the item length past which a read containing NUL
// means the human table has ended.
const exhaustedItemLen = 100

// kindRecoverer walks data.bin. data.bin has no record framing: boundaries
// come from the anchors, the kingdom values and the item-list heuristics.
type kindRecoverer struct {
	data []byte
	pos  int
	log  logrus.FieldLogger
}

// asciiSpace is stripped from both ends of data.bin before recovery.
const asciiSpace = " \t\n\v\f\r"

// RecoverUnitKinds extracts monster kinds followed by human kinds from a
// data.bin image, in stream order. Surrounding ASCII whitespace is ignored,
// so offsets in errors count from the first non-space byte.
func RecoverUnitKinds(data []byte, opts ...Option) ([]*model.UnitKind, error) {
	o := buildOptions(opts)
	data = bytes.Trim(data, asciiSpace)

	anchor := bytes.Index(data, []byte(firstMonsterName))
	if anchor < 1 {
		return nil, errs.New(errs.MissingAnchor, "%q not found", firstMonsterName)
	}
	r := &kindRecoverer{data: data, pos: anchor - 1, log: o.log}

	var kinds []*model.UnitKind
	for {
		kind, more, err := r.monster(len(kinds))
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
		kinds = append(kinds, kind)
	}
	for {
		kind, more, err := r.human(len(kinds))
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

// monster reads one monster kind. It reports more=false after the "Human"
// entry, leaving the cursor on the first human kind.
func (r *kindRecoverer) monster(index int) (*model.UnitKind, bool, error) {
	at := r.pos
	name, err := r.varString()
	if err != nil {
		return nil, false, errs.LocateRecord(err, index)
	}
	stats, err := r.eat(MonsterLayout, index)
	if err != nil {
		return nil, false, err
	}
	if k := stats.Uint("kingdom"); k != model.KingdomMonster {
		return nil, false, errs.New(errs.WrongKingdom, "monster %q has kingdom %d, want %d", name, k, model.KingdomMonster).
			AtOffset(int64(at)).AtRecord(index)
	}

	if name == humanMarkerName {
		next := bytes.Index(r.data[r.pos:], []byte(firstHumanName))
		if next < 0 {
			return nil, false, errs.New(errs.MissingAnchor, "%q not found after %q", firstHumanName, humanMarkerName).
				AtOffset(int64(r.pos))
		}
		r.pos += next - 1
		return nil, false, nil
	}

	kind := newKind(name, model.ShapeMonster, stats)
	for {
		item, err := r.varString()
		if err != nil {
			return nil, false, errs.LocateRecord(err, index)
		}
		if item == "" {
			break
		}
		kind.Items = append(kind.Items, item)
	}
	r.skipZeros()
	return kind, true, nil
}

// human reads one human kind. It reports more=false at the end of the stream
// and when the item heuristics find the table exhausted; the kind being read
// in the latter case is dropped.
func (r *kindRecoverer) human(index int) (*model.UnitKind, bool, error) {
	if r.pos >= len(r.data) {
		return nil, false, nil
	}
	at := r.pos
	name, err := r.varString()
	if err != nil {
		return nil, false, errs.LocateRecord(err, index)
	}
	stats, err := r.eat(HumanLayout, index)
	if err != nil {
		return nil, false, err
	}
	if k := stats.Uint("kingdom"); k != model.KingdomHuman {
		return nil, false, errs.New(errs.WrongKingdom, "human %q has kingdom %d, want %d", name, k, model.KingdomHuman).
			AtOffset(int64(at)).AtRecord(index)
	}

	kind := newKind(name, model.ShapeHuman, stats)
	bursts := 0
	for {
		items, exhausted, err := r.itemBurst()
		if err != nil {
			return nil, false, errs.LocateRecord(err, index)
		}
		if exhausted {
			r.log.WithFields(logrus.Fields{
				"name":   name,
				"offset": r.pos,
			}).Debug("human kind table exhausted")
			return nil, false, nil
		}
		kind.Items = append(kind.Items, items...)
		bursts++
		if r.nextIsHuman() {
			break
		}
	}
	if bursts > 1 {
		kind.Ambiguous = true
		r.log.WithFields(logrus.Fields{
			"name":   name,
			"offset": at,
		}).Warn("item list spans several bursts, review unit kind")
	}
	r.skipZeros()
	return kind, true, nil
}

// itemBurst reads item names until an empty read or until the string just
// read turns out to be the next human's name, which is then pushed back.
func (r *kindRecoverer) itemBurst() ([]string, bool, error) {
	var items []string
	for {
		start := r.pos
		raw, ok := r.varBytes()
		if !ok {
			return nil, true, nil
		}
		if len(raw) > exhaustedItemLen && bytes.IndexByte(raw, 0) >= 0 {
			return nil, true, nil
		}
		if bytes.HasPrefix(r.data[r.pos:], humanKingdomBytes) {
			r.pos = start
			return items, false, nil
		}
		if len(raw) == 0 {
			return items, false, nil
		}
		s, err := layout.DecodeText(raw)
		if err != nil {
			return nil, false, errs.Locate(err, int64(start), errs.Unknown)
		}
		items = append(items, s)
	}
}

// nextIsHuman peeks at the length-prefixed string under the cursor and
// reports whether a human kingdom follows it. Running off the end counts as
// the end of the list.
func (r *kindRecoverer) nextIsHuman() bool {
	if r.pos >= len(r.data) {
		return true
	}
	after := r.pos + int(r.data[r.pos]) + 1
	if after+len(humanKingdomBytes) > len(r.data) {
		return true
	}
	return bytes.Equal(r.data[after:after+len(humanKingdomBytes)], humanKingdomBytes)
}

// varBytes reads a u8 length-prefixed byte string. ok is false when the
// prefix or the body runs past the end of the data.
func (r *kindRecoverer) varBytes() ([]byte, bool) {
	if r.pos >= len(r.data) {
		return nil, false
	}
	n := int(r.data[r.pos])
	if r.pos+1+n > len(r.data) {
		return nil, false
	}
	b := r.data[r.pos+1 : r.pos+1+n]
	r.pos += 1 + n
	return b, true
}

// varString reads a length-prefixed name, which must not contain NUL.
func (r *kindRecoverer) varString() (string, error) {
	at := r.pos
	raw, ok := r.varBytes()
	if !ok {
		return "", errs.New(errs.Truncated, "string runs past end of data").AtOffset(int64(at))
	}
	if bytes.IndexByte(raw, 0) >= 0 {
		return "", errs.New(errs.MalformedString, "string %q contains NUL", raw).AtOffset(int64(at))
	}
	s, err := layout.DecodeText(raw)
	if err != nil {
		return "", errs.Locate(err, int64(at), errs.Unknown)
	}
	return s, nil
}

func (r *kindRecoverer) eat(l *layout.Layout, index int) (layout.Record, error) {
	rec, err := l.Decode(r.data[r.pos:])
	if err != nil {
		return layout.Record{}, errs.LocateRecord(errs.Locate(err, int64(r.pos), errs.Unknown), index)
	}
	r.pos += l.Size()
	return rec, nil
}

func (r *kindRecoverer) skipZeros() {
	for r.pos < len(r.data) && r.data[r.pos] == 0 {
		r.pos++
	}
}

func newKind(name string, shape model.KindShape, stats layout.Record) *model.UnitKind {
	return &model.UnitKind{
		Name:     name,
		Shape:    shape,
		Kingdom:  uint16(stats.Uint("kingdom")),
		ServerID: stats.Uint("server_id"),
		Stats:    stats,
	}
}

// IndexUnitKinds keys kinds by server id. Two kinds sharing an id is an
// error.
func IndexUnitKinds(kinds []*model.UnitKind) (map[uint32]*model.UnitKind, error) {
	out := make(map[uint32]*model.UnitKind, len(kinds))
	for i, k := range kinds {
		if prev, dup := out[k.ServerID]; dup {
			return nil, errs.New(errs.DuplicateServerID, "%q and %q share server id %d", prev.Name, k.Name, k.ServerID).AtRecord(i)
		}
		out[k.ServerID] = k
	}
	return out, nil
}
