package binary

import (
	"fmt"
	"io"

	"github.com/dyuri/almconv/internal/errs"
	"github.com/dyuri/almconv/internal/layout"
	"github.com/dyuri/almconv/internal/model"
	"github.com/sirupsen/logrus"
)

// Reader handles parsing of binary .alm map files
type Reader struct {
	r    io.ReaderAt
	size int64
	log  logrus.FieldLogger

	data    []byte
	pos     int
	end     int // Bound of the current section body
	section int // Current section id, errs.Unknown outside sections
	info    *model.Info
}

// Option configures a Reader or Writer.
type Option func(*options)

type options struct {
	log logrus.FieldLogger
}

// WithLogger routes debug output to l.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		o.log = l
	}
}

func buildOptions(opts []Option) options {
	o := options{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewReader creates a new binary map reader
func NewReader(r io.ReaderAt, size int64, opts ...Option) *Reader {
	o := buildOptions(opts)
	return &Reader{
		r:       r,
		size:    size,
		log:     o.log,
		section: errs.Unknown,
	}
}

// Parse reads the entire map and returns the in-memory model
func (r *Reader) Parse() (*model.Map, error) {
	r.data = make([]byte, r.size)
	if _, err := r.r.ReadAt(r.data, 0); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read map bytes: %w", err)
	}
	r.pos = 0
	r.end = len(r.data)

	m := model.NewMap()

	numSections, err := r.readHeader(m)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	for s := 0; s < int(numSections); s++ {
		if err := r.readSection(m, s); err != nil {
			return nil, err
		}
	}

	if r.pos != len(r.data) {
		return nil, errs.New(errs.TrailingData, "%d unconsumed bytes", len(r.data)-r.pos).AtOffset(int64(r.pos))
	}
	return m, nil
}

// readHeader reads the file header and returns the section count
func (r *Reader) readHeader(m *model.Map) (uint32, error) {
	h, err := r.eat(headerLayout)
	if err != nil {
		return 0, err
	}
	if sig := h.Bytes("signature"); string(sig) != Signature {
		return 0, errs.New(errs.BadSignature, "signature %q, want %q", sig, Signature).AtOffset(0)
	}
	if v := h.Uint("version"); v != Version {
		return 0, errs.New(errs.UnsupportedVersion, "version %d, want %d", v, Version).AtOffset(0)
	}
	m.File.AlmSize = h.Uint("alm_size")
	m.File.Reserved = h.Uint("reserved")
	return h.Uint("num_sections"), nil
}

// readSection reads one section header and dispatches its body
func (r *Reader) readSection(m *model.Map, ordinal int) error {
	headerAt := r.pos
	sh, err := r.eat(sectionHeaderLayout)
	if err != nil {
		return fmt.Errorf("read section header %d: %w", ordinal, err)
	}

	id := sh.Uint("id")
	sig := model.Hex32(sh.Uint("signature"))
	if ordinal == 0 {
		m.File.SectionSignature = sig
	} else if sig != m.File.SectionSignature {
		return errs.New(errs.BadSectionSignature, "signature %s, want %s", sig, m.File.SectionSignature).
			AtOffset(int64(headerAt)).InSection(int(id))
	}
	m.File.Sections = append(m.File.Sections, model.SectionMeta{
		ID:          id,
		SevenOrFive: sh.Uint("seven_or_five"),
		AlmSize:     sh.Uint("alm_size"),
	})

	size := int(sh.Uint("section_size"))
	start := r.pos
	if size > len(r.data)-start {
		return errs.New(errs.Truncated, "section body of %d bytes, %d left", size, len(r.data)-start).
			AtOffset(int64(start)).InSection(int(id))
	}

	r.log.WithFields(logrus.Fields{
		"section": id,
		"offset":  start,
		"size":    size,
	}).Debug("decode section")

	r.end = start + size
	r.section = int(id)
	if err := r.readBody(m, id); err != nil {
		return fmt.Errorf("read section %d: %w", id, err)
	}
	if r.pos != r.end {
		return errs.New(errs.TrailingData, "%d unconsumed bytes in section body", r.end-r.pos).
			AtOffset(int64(r.pos)).InSection(int(id))
	}
	r.end = len(r.data)
	r.section = errs.Unknown
	return nil
}

func (r *Reader) readBody(m *model.Map, id uint32) error {
	switch id {
	case SectionInfo:
		return r.untilEnd(infoLayout, func(rec layout.Record) error {
			m.Info = infoFromRecord(rec)
			r.info = &m.Info
			return nil
		})
	case SectionTiles:
		return r.untilEnd(tileLayout, func(rec layout.Record) error {
			m.Tiles = append(m.Tiles, model.Hex16(rec.Uint("tile")))
			return nil
		})
	case SectionHeights:
		return r.untilEnd(heightLayout, func(rec layout.Record) error {
			m.Heights = append(m.Heights, uint8(rec.Uint("height")))
			return nil
		})
	case SectionObjects:
		return r.untilEnd(objectLayout, func(rec layout.Record) error {
			m.Objects = append(m.Objects, uint8(rec.Uint("object_id")))
			return nil
		})
	case SectionBuildings:
		return r.untilEnd(buildingLayout, func(rec layout.Record) error {
			b := buildingFromRecord(rec)
			if b.IsBridge() {
				bs, err := r.eat(bridgeSizeLayout)
				if err != nil {
					return fmt.Errorf("read bridge size: %w", err)
				}
				b.Bridge = &model.BridgeSize{
					Width:  bs.Uint("bridge_width"),
					Height: bs.Uint("bridge_height"),
				}
			}
			m.Buildings = append(m.Buildings, b)
			return nil
		})
	case SectionPlayers:
		return r.untilEnd(playerLayout, func(rec layout.Record) error {
			m.Players = append(m.Players, playerFromRecord(rec))
			return nil
		})
	case SectionUnits:
		if err := r.needInfo(); err != nil {
			return err
		}
		return r.counted(unitLayout, int(r.info.NumUnits), func(rec layout.Record) error {
			m.Units = append(m.Units, unitFromRecord(rec))
			return nil
		})
	case SectionLogics:
		return r.readLogics(m)
	case SectionBags:
		if err := r.needInfo(); err != nil {
			return err
		}
		return r.readBags(m, int(r.info.NumBags))
	case SectionEffects:
		return r.readEffects(m)
	case SectionGroups:
		if err := r.needInfo(); err != nil {
			return err
		}
		return r.counted(groupLayout, int(r.info.NumGroups), func(rec layout.Record) error {
			m.Groups = append(m.Groups, groupFromRecord(rec))
			return nil
		})
	case SectionShops:
		if err := r.needInfo(); err != nil {
			return err
		}
		return r.readShops(m)
	case SectionMusic:
		if err := r.needInfo(); err != nil {
			return err
		}
		// The stored count is one less than the number of records.
		return r.counted(musicLayout, int(r.info.NumMusic)+1, func(rec layout.Record) error {
			m.Music = append(m.Music, musicFromRecord(rec))
			return nil
		})
	default:
		return errs.New(errs.UnknownSection, "unhandled section id %d", id).
			AtOffset(int64(r.pos)).InSection(int(id))
	}
}

func (r *Reader) readLogics(m *model.Map) error {
	instances, err := r.readInstances("instance")
	if err != nil {
		return fmt.Errorf("read instances: %w", err)
	}
	if err := uniqueIndexes(instances, "instance"); err != nil {
		return errs.Locate(err, int64(r.pos), r.section)
	}

	checks, err := r.readInstances("check")
	if err != nil {
		return fmt.Errorf("read checks: %w", err)
	}
	// Legacy maps leave every check index at 0; only enforce uniqueness
	// once any check is actually numbered.
	if anyIndexed(checks) {
		if err := uniqueIndexes(checks, "check"); err != nil {
			return errs.Locate(err, int64(r.pos), r.section)
		}
	}

	n, err := r.count()
	if err != nil {
		return fmt.Errorf("read trigger count: %w", err)
	}
	var triggers []model.Trigger
	err = r.counted(triggerLayout, n, func(rec layout.Record) error {
		triggers = append(triggers, triggerFromRecord(rec))
		return nil
	})
	if err != nil {
		return fmt.Errorf("read triggers: %w", err)
	}

	m.Instances = instances
	m.Checks = checks
	m.Triggers = triggers
	return nil
}

func (r *Reader) readInstances(kind string) ([]model.Instance, error) {
	n, err := r.count()
	if err != nil {
		return nil, fmt.Errorf("read %s count: %w", kind, err)
	}
	var list []model.Instance
	err = r.counted(instanceLayout, n, func(rec layout.Record) error {
		list = append(list, instanceFromRecord(rec))
		return nil
	})
	return list, err
}

func uniqueIndexes(list []model.Instance, kind string) error {
	seen := make(map[uint32]int, len(list))
	for i, inst := range list {
		if first, dup := seen[inst.Index]; dup {
			return errs.New(errs.DuplicateIndex, "%s %d reuses index %d of %s %d", kind, i, inst.Index, kind, first).AtRecord(i)
		}
		seen[inst.Index] = i
	}
	return nil
}

func anyIndexed(list []model.Instance) bool {
	for _, inst := range list {
		if inst.Index != 0 {
			return true
		}
	}
	return false
}

func (r *Reader) readBags(m *model.Map, n int) error {
	for i := 0; i < n; i++ {
		rec, err := r.eatRecord(bagLayout, i)
		if err != nil {
			return err
		}
		bag := bagFromRecord(rec)
		numItems := int(rec.Uint("num_items"))
		for j := 0; j < numItems; j++ {
			item, err := r.eatRecord(bagItemLayout, i)
			if err != nil {
				return fmt.Errorf("read bag item %d: %w", j, err)
			}
			bag.Items = append(bag.Items, bagItemFromRecord(item))
		}
		m.Bags = append(m.Bags, bag)
	}
	return nil
}

func (r *Reader) readEffects(m *model.Map) error {
	n, err := r.count()
	if err != nil {
		return fmt.Errorf("read effect count: %w", err)
	}
	for i := 0; i < n; i++ {
		at := r.pos
		rec, err := r.eatRecord(effectLayout, i)
		if err != nil {
			return err
		}
		numMods := int(rec.Uint("num_modifiers"))
		if numMods != 0 && numMods != 2 {
			return errs.New(errs.ModifierCount, "effect has %d modifiers", numMods).
				AtOffset(int64(at)).InSection(r.section).AtRecord(i)
		}
		effect := effectFromRecord(rec)
		for j := 0; j < numMods; j++ {
			mod, err := r.eatRecord(effectModifierLayout, i)
			if err != nil {
				return fmt.Errorf("read effect modifier %d: %w", j, err)
			}
			effect.Modifiers = append(effect.Modifiers, modifierFromRecord(mod))
		}
		m.Effects = append(m.Effects, effect)
	}
	return nil
}

func (r *Reader) readShops(m *model.Map) error {
	err := r.counted(innLayout, int(r.info.NumInns), func(rec layout.Record) error {
		m.Inns = append(m.Inns, innFromRecord(rec))
		return nil
	})
	if err != nil {
		return fmt.Errorf("read inns: %w", err)
	}
	err = r.counted(shopLayout, int(r.info.NumShops), func(rec layout.Record) error {
		m.Shops = append(m.Shops, shopFromRecord(rec))
		return nil
	})
	if err != nil {
		return fmt.Errorf("read shops: %w", err)
	}
	err = r.counted(signLayout, int(r.info.NumSigns), func(rec layout.Record) error {
		m.Signs = append(m.Signs, signFromRecord(rec))
		return nil
	})
	if err != nil {
		return fmt.Errorf("read signs: %w", err)
	}
	return nil
}

func (r *Reader) needInfo() error {
	if r.info == nil {
		return errs.New(errs.MissingInfo, "section %d needs counts from section 0", r.section).
			AtOffset(int64(r.pos)).InSection(r.section)
	}
	return nil
}

// untilEnd decodes records of l until the section body is exhausted
func (r *Reader) untilEnd(l *layout.Layout, fn func(layout.Record) error) error {
	for i := 0; r.pos < r.end; i++ {
		rec, err := r.eatRecord(l, i)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return errs.LocateRecord(err, i)
		}
	}
	return nil
}

// counted decodes exactly n records of l
func (r *Reader) counted(l *layout.Layout, n int, fn func(layout.Record) error) error {
	for i := 0; i < n; i++ {
		rec, err := r.eatRecord(l, i)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return errs.LocateRecord(err, i)
		}
	}
	return nil
}

// count decodes a u32 count prefix
func (r *Reader) count() (int, error) {
	rec, err := r.eat(countLayout)
	if err != nil {
		return 0, err
	}
	return int(rec.Uint("count")), nil
}

func (r *Reader) eatRecord(l *layout.Layout, index int) (layout.Record, error) {
	rec, err := r.eat(l)
	if err != nil {
		return layout.Record{}, errs.LocateRecord(err, index)
	}
	return rec, nil
}

// eat decodes one record of l at the cursor, bounded by the current section
func (r *Reader) eat(l *layout.Layout) (layout.Record, error) {
	if l.Size() > r.end-r.pos {
		return layout.Record{}, errs.New(errs.Truncated, "%s needs %d bytes, %d left", l.Name(), l.Size(), r.end-r.pos).
			AtOffset(int64(r.pos)).InSection(r.section)
	}
	rec, err := l.Decode(r.data[r.pos:r.end])
	if err != nil {
		return layout.Record{}, errs.Locate(err, int64(r.pos), r.section)
	}
	r.pos += l.Size()
	return rec, nil
}
