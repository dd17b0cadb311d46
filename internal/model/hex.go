package model

import (
	"fmt"
	"strconv"
)

// Hex32 is a 32-bit value (flags, item ids) rendered in hexadecimal.
type Hex32 uint32

func (h Hex32) String() string {
	return fmt.Sprintf("0x%X", uint32(h))
}

func (h Hex32) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hex32) UnmarshalText(text []byte) error {
	v, err := strconv.ParseUint(string(text), 0, 32)
	if err != nil {
		return fmt.Errorf("parse hex32 %q: %w", text, err)
	}
	*h = Hex32(v)
	return nil
}

// Hex16 is a 16-bit value rendered in hexadecimal.
type Hex16 uint16

func (h Hex16) String() string {
	return fmt.Sprintf("0x%X", uint16(h))
}

func (h Hex16) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hex16) UnmarshalText(text []byte) error {
	v, err := strconv.ParseUint(string(text), 0, 16)
	if err != nil {
		return fmt.Errorf("parse hex16 %q: %w", text, err)
	}
	*h = Hex16(v)
	return nil
}
