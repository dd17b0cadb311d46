// Package almconv reads and writes Allods 2 .alm map files and the engine
// data that gives their ids meaning.
//
// This package can be used as a library to decode a map, edit the in-memory
// model and encode it back. Re-encoding an unmodified map reproduces the
// original file byte for byte.
//
// Example usage:
//
//	m, err := almconv.DecodeMapFile("scenario1.alm")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	m.Info.MapName = "Edited"
//	err = almconv.WriteMapFile("edited.alm", m)
package almconv

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dyuri/almconv/internal/binary"
	"github.com/dyuri/almconv/internal/engine"
	"github.com/dyuri/almconv/internal/errs"
	"github.com/dyuri/almconv/internal/model"
	"github.com/sirupsen/logrus"
)

// Option configures decoding and encoding.
type Option func(*options)

type options struct {
	log logrus.FieldLogger
}

// WithLogger routes codec output to l. The default is logrus' standard
// logger.
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

// ParseMap reads a binary map and returns the in-memory model.
//
// The reader must support ReadAt for random access. The size parameter
// should be the total file size in bytes.
func ParseMap(r io.ReaderAt, size int64, opts ...Option) (*model.Map, error) {
	o := buildOptions(opts)
	return binary.NewReader(r, size, binary.WithLogger(o.log)).Parse()
}

// DecodeMap decodes a map held in memory.
func DecodeMap(data []byte, opts ...Option) (*model.Map, error) {
	return ParseMap(bytes.NewReader(data), int64(len(data)), opts...)
}

// WriteMap encodes m to w. Count fields of m.Info are recomputed from the
// collections; m is not modified.
func WriteMap(w io.WriteSeeker, m *model.Map, opts ...Option) error {
	o := buildOptions(opts)
	return binary.NewWriter(w, binary.WithLogger(o.log)).Write(m)
}

// EncodeMap encodes m in memory.
func EncodeMap(m *model.Map, opts ...Option) ([]byte, error) {
	var buf binary.Buffer
	if err := WriteMap(&buf, m, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeMapFile reads and decodes the map at path. Errors name the file.
func DecodeMapFile(path string, opts ...Option) (*model.Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := DecodeMap(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// WriteMapFile encodes m to path. The file is always closed, and removed
// again when encoding fails.
func WriteMapFile(path string, m *model.Map, opts ...Option) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("%s: %w", path, cerr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	if err := WriteMap(f, m, opts...); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// EngineSources holds the raw contents of the engine data files.
type EngineSources = engine.Sources

// DecodeEngineData builds the engine lookup tables from raw file contents.
func DecodeEngineData(src EngineSources, opts ...Option) (*model.EngineData, error) {
	o := buildOptions(opts)
	return engine.Decode(src, engine.WithLogger(o.log))
}

// LoadEngineData reads the engine data files below a game data directory
// (the directory holding world/ and locale/).
func LoadEngineData(dir string, opts ...Option) (*model.EngineData, error) {
	var src EngineSources
	files := []struct {
		path string
		dst  *[]byte
	}{
		{engine.ItemIDsPath, &src.ItemIDs},
		{engine.ItemNamesPath, &src.ItemNames},
		{engine.SpellNamesPath, &src.SpellNames},
		{engine.UnitKindsPath, &src.UnitKinds},
	}
	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(f.path)))
		if err != nil {
			return nil, err
		}
		*f.dst = data
	}

	data, err := DecodeEngineData(src, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dir, err)
	}
	return data, nil
}

// Error is a structural decode or encode failure. Use errors.Is with the
// Err* values to test its class and errors.As to read its location.
type Error = errs.Error

// Error classes.
var (
	ErrBadSignature        = errs.ErrBadSignature
	ErrUnsupportedVersion  = errs.ErrUnsupportedVersion
	ErrBadSectionSignature = errs.ErrBadSectionSignature
	ErrUnknownSection      = errs.ErrUnknownSection
	ErrTrailingData        = errs.ErrTrailingData
	ErrDuplicateIndex      = errs.ErrDuplicateIndex
	ErrShapeMismatch       = errs.ErrShapeMismatch
	ErrMalformedCoordinate = errs.ErrMalformedCoordinate
	ErrWrongKingdom        = errs.ErrWrongKingdom
	ErrDuplicateServerID   = errs.ErrDuplicateServerID
	ErrCountMismatch       = errs.ErrCountMismatch
	ErrTruncated           = errs.ErrTruncated
	ErrMissingInfo         = errs.ErrMissingInfo
	ErrModifierCount       = errs.ErrModifierCount
	ErrMissingAnchor       = errs.ErrMissingAnchor
	ErrMalformedString     = errs.ErrMalformedString
	ErrUnencodable         = errs.ErrUnencodable
)
