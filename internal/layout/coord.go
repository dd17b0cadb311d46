package layout

import (
	"math"

	"github.com/dyuri/almconv/internal/errs"
)

// Map positions are stored in 1/256 cell units, offset to the cell centre.
const (
	coordScale  = 256
	coordCentre = 128
)

// DecodeCoord converts a stored position to a grid coordinate.
func DecodeCoord(raw uint32) (uint32, error) {
	if raw < coordCentre || (raw-coordCentre)%coordScale != 0 {
		return 0, errs.New(errs.MalformedCoordinate, "position %d is not a cell centre", raw)
	}
	return (raw - coordCentre) / coordScale, nil
}

// EncodeCoord converts a grid coordinate to its stored position.
func EncodeCoord(v uint32) (uint32, error) {
	if uint64(v)*coordScale+coordCentre > math.MaxUint32 {
		return 0, errs.New(errs.MalformedCoordinate, "coordinate %d out of range", v)
	}
	return v*coordScale + coordCentre, nil
}
