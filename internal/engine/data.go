package engine

import (
	"fmt"
	"strings"

	"github.com/dyuri/almconv/internal/errs"
	"github.com/dyuri/almconv/internal/layout"
	"github.com/dyuri/almconv/internal/model"
	"github.com/sirupsen/logrus"
)

// Paths of the engine data files, relative to the game's data directory.
const (
	ItemIDsPath    = "world/data/itemname.bin"
	ItemNamesPath  = "locale/en/itemname.txt"
	SpellNamesPath = "locale/en/spell.txt"
	UnitKindsPath  = "world/data/data.bin"
)

// Option configures decoding.
type Option func(*options)

type options struct {
	log logrus.FieldLogger
}

// WithLogger routes recoverer output to l.
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

// Sources holds the raw contents of the engine data files.
type Sources struct {
	ItemIDs    []byte // itemname.bin
	ItemNames  []byte // itemname.txt
	SpellNames []byte // spell.txt
	UnitKinds  []byte // data.bin
}

// Decode builds the engine data from raw file contents.
func Decode(src Sources, opts ...Option) (*model.EngineData, error) {
	ids, err := ParseItemIDs(src.ItemIDs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ItemIDsPath, err)
	}
	names, err := ParseLines(src.ItemNames)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ItemNamesPath, err)
	}
	if len(ids) != len(names) {
		return nil, errs.New(errs.CountMismatch, "%s has %d ids but %s has %d names", ItemIDsPath, len(ids), ItemNamesPath, len(names))
	}
	itemNames := make(map[uint32]string, len(ids))
	for i, id := range ids {
		itemNames[id] = names[i]
	}

	spells, err := ParseLines(src.SpellNames)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", SpellNamesPath, err)
	}

	kinds, err := RecoverUnitKinds(src.UnitKinds, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", UnitKindsPath, err)
	}
	byServerID, err := IndexUnitKinds(kinds)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", UnitKindsPath, err)
	}

	return &model.EngineData{
		ItemNames:     itemNames,
		SpellNames:    spells,
		ItemModifiers: ItemModifiers(),
		UnitKinds:     byServerID,
	}, nil
}

// ParseItemIDs decodes itemname.bin: a flat array of u16 item ids.
func ParseItemIDs(b []byte) ([]uint32, error) {
	if len(b)%2 != 0 {
		return nil, errs.New(errs.Truncated, "item id table has odd length %d", len(b)).AtOffset(int64(len(b) - 1))
	}
	ids := make([]uint32, len(b)/2)
	for i := range ids {
		ids[i] = uint32(b[2*i]) | uint32(b[2*i+1])<<8
	}
	return ids, nil
}

// ParseLines decodes a Windows-1251 text file into lines. Surrounding
// whitespace of the whole file is trimmed and CRLF is accepted.
func ParseLines(b []byte) ([]string, error) {
	decoded, err := layout.Codepage.NewDecoder().Bytes(b)
	if err != nil {
		return nil, errs.New(errs.MalformedString, "decode text").Wrap(err)
	}
	text := strings.ReplaceAll(string(decoded), "\r\n", "\n")
	return strings.Split(strings.TrimSpace(text), "\n"), nil
}
