package binary

import (
	"fmt"
	"io"

	"github.com/dyuri/almconv/internal/errs"
	"github.com/dyuri/almconv/internal/layout"
	"github.com/dyuri/almconv/internal/model"
	"github.com/sirupsen/logrus"
)

// Writer handles writing maps to the binary .alm format
type Writer struct {
	w   io.WriteSeeker
	log logrus.FieldLogger

	buf     []byte // Scratch for the record being encoded
	section int
}

// NewWriter creates a new binary map writer
func NewWriter(w io.WriteSeeker, opts ...Option) *Writer {
	o := buildOptions(opts)
	return &Writer{
		w:       w,
		log:     o.log,
		section: errs.Unknown,
	}
}

// Write writes a complete map. Derived counts are recomputed from the
// collections; m itself is not modified.
func (w *Writer) Write(m *model.Map) error {
	sections := m.File.Sections
	if len(sections) == 0 {
		sections = make([]model.SectionMeta, len(defaultSectionOrder))
		for i, id := range defaultSectionOrder {
			sections[i] = model.SectionMeta{
				ID:          id,
				SevenOrFive: defaultSevenOrFive,
				AlmSize:     defaultAlmSize,
			}
		}
	}

	almSize := m.File.AlmSize
	if almSize == 0 && len(m.File.Sections) == 0 {
		almSize = defaultAlmSize
	}
	sig := uint32(m.File.SectionSignature)
	if sig == 0 && len(m.File.Sections) == 0 {
		sig = defaultSectionSignature
	}

	h := headerLayout.NewRecord()
	h.SetBytes("signature", []byte(Signature))
	h.SetUint("alm_size", almSize)
	h.SetUint("reserved", m.File.Reserved)
	h.SetUint("num_sections", uint32(len(sections)))
	h.SetUint("version", Version)
	if err := w.put(headerLayout, h); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	info := m.DerivedInfo()
	for _, s := range sections {
		if err := w.writeSection(m, &info, s, sig); err != nil {
			return err
		}
	}
	return nil
}

// writeSection reserves a header, writes the body, then backpatches the
// header with the real body size.
func (w *Writer) writeSection(m *model.Map, info *model.Info, s model.SectionMeta, sig uint32) error {
	headerAt, err := w.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("locate section %d: %w", s.ID, err)
	}

	sh := sectionHeaderLayout.NewRecord()
	sh.SetUint("seven_or_five", s.SevenOrFive)
	sh.SetUint("alm_size", s.AlmSize)
	sh.SetUint("id", s.ID)
	sh.SetUint("signature", sig)
	if err := w.put(sectionHeaderLayout, sh); err != nil {
		return fmt.Errorf("write section header %d: %w", s.ID, err)
	}

	w.section = int(s.ID)
	if err := w.writeBody(m, info, s.ID); err != nil {
		return fmt.Errorf("write section %d: %w", s.ID, err)
	}
	w.section = errs.Unknown

	end, err := w.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("locate section %d end: %w", s.ID, err)
	}
	size := end - headerAt - int64(sectionHeaderLayout.Size())

	w.log.WithFields(logrus.Fields{
		"section": s.ID,
		"offset":  headerAt,
		"size":    size,
	}).Debug("encode section")

	sh.SetUint("section_size", uint32(size))
	if _, err := w.w.Seek(headerAt, io.SeekStart); err != nil {
		return fmt.Errorf("seek section %d header: %w", s.ID, err)
	}
	if err := w.put(sectionHeaderLayout, sh); err != nil {
		return fmt.Errorf("patch section header %d: %w", s.ID, err)
	}
	if _, err := w.w.Seek(end, io.SeekStart); err != nil {
		return fmt.Errorf("seek past section %d: %w", s.ID, err)
	}
	return nil
}

func (w *Writer) writeBody(m *model.Map, info *model.Info, id uint32) error {
	switch id {
	case SectionInfo:
		return w.put(infoLayout, infoRecord(*info))
	case SectionTiles:
		return each(w, m.Tiles, func(t model.Hex16) error {
			r := tileLayout.NewRecord()
			r.SetUint("tile", uint32(t))
			return w.put(tileLayout, r)
		})
	case SectionHeights:
		return each(w, m.Heights, func(v uint8) error {
			r := heightLayout.NewRecord()
			r.SetUint("height", uint32(v))
			return w.put(heightLayout, r)
		})
	case SectionObjects:
		return each(w, m.Objects, func(v uint8) error {
			r := objectLayout.NewRecord()
			r.SetUint("object_id", uint32(v))
			return w.put(objectLayout, r)
		})
	case SectionBuildings:
		return each(w, m.Buildings, w.writeBuilding)
	case SectionPlayers:
		return each(w, m.Players, func(p model.Player) error {
			return w.put(playerLayout, playerRecord(p))
		})
	case SectionUnits:
		return each(w, m.Units, func(u model.Unit) error {
			return w.put(unitLayout, unitRecord(u))
		})
	case SectionLogics:
		return w.writeLogics(m)
	case SectionBags:
		return each(w, m.Bags, w.writeBag)
	case SectionEffects:
		if err := w.put(countLayout, countRecord(len(m.Effects))); err != nil {
			return err
		}
		return each(w, m.Effects, w.writeEffect)
	case SectionGroups:
		return each(w, m.Groups, func(g model.Group) error {
			return w.put(groupLayout, groupRecord(g))
		})
	case SectionShops:
		if err := each(w, m.Inns, func(i model.Inn) error {
			return w.put(innLayout, innRecord(i))
		}); err != nil {
			return fmt.Errorf("write inns: %w", err)
		}
		if err := each(w, m.Shops, func(s model.Shop) error {
			return w.put(shopLayout, shopRecord(s))
		}); err != nil {
			return fmt.Errorf("write shops: %w", err)
		}
		if err := each(w, m.Signs, func(s model.Sign) error {
			return w.put(signLayout, signRecord(s))
		}); err != nil {
			return fmt.Errorf("write signs: %w", err)
		}
		return nil
	case SectionMusic:
		if len(m.Music) == 0 {
			return errs.New(errs.ShapeMismatch, "music section needs at least one record").InSection(w.section)
		}
		return each(w, m.Music, func(mu model.Music) error {
			return w.put(musicLayout, musicRecord(mu))
		})
	default:
		return errs.New(errs.UnknownSection, "unhandled section id %d", id).InSection(int(id))
	}
}

func (w *Writer) writeBuilding(b model.Building) error {
	if b.IsBridge() != (b.Bridge != nil) {
		return errs.New(errs.ShapeMismatch, "building type 0x%X: bridge size present=%t", b.TypeID, b.Bridge != nil).
			InSection(w.section)
	}
	if err := w.put(buildingLayout, buildingRecord(b)); err != nil {
		return err
	}
	if b.Bridge != nil {
		return w.put(bridgeSizeLayout, bridgeRecord(*b.Bridge))
	}
	return nil
}

func (w *Writer) writeLogics(m *model.Map) error {
	for _, list := range [][]model.Instance{m.Instances, m.Checks} {
		if err := w.put(countLayout, countRecord(len(list))); err != nil {
			return err
		}
		if err := each(w, list, func(i model.Instance) error {
			return w.put(instanceLayout, instanceRecord(i))
		}); err != nil {
			return err
		}
	}
	if err := w.put(countLayout, countRecord(len(m.Triggers))); err != nil {
		return err
	}
	return each(w, m.Triggers, func(t model.Trigger) error {
		return w.put(triggerLayout, triggerRecord(t))
	})
}

func (w *Writer) writeBag(b model.Bag) error {
	if err := w.put(bagLayout, bagRecord(b)); err != nil {
		return err
	}
	for _, item := range b.Items {
		if err := w.put(bagItemLayout, bagItemRecord(item)); err != nil {
			return fmt.Errorf("write bag item: %w", err)
		}
	}
	return nil
}

func (w *Writer) writeEffect(e model.Effect) error {
	if n := len(e.Modifiers); n != 0 && n != 2 {
		return errs.New(errs.ModifierCount, "effect has %d modifiers", n).InSection(w.section)
	}
	if err := w.put(effectLayout, effectRecord(e)); err != nil {
		return err
	}
	for _, mod := range e.Modifiers {
		if err := w.put(effectModifierLayout, modifierRecord(mod)); err != nil {
			return fmt.Errorf("write effect modifier: %w", err)
		}
	}
	return nil
}

// each calls fn for every element, tagging failures with the element index
func each[T any](w *Writer, list []T, fn func(T) error) error {
	for i, v := range list {
		if err := fn(v); err != nil {
			return errs.LocateRecord(err, i)
		}
	}
	return nil
}

// put encodes one record and writes it at the current position
func (w *Writer) put(l *layout.Layout, r layout.Record) error {
	var err error
	w.buf, err = l.AppendEncode(w.buf[:0], r)
	if err != nil {
		return errs.Locate(err, errs.Unknown, w.section)
	}
	if _, err := w.w.Write(w.buf); err != nil {
		return fmt.Errorf("write %s: %w", l.Name(), err)
	}
	return nil
}
