package vm

import (
	"unicode/utf16"
	"unsafe"
)

// StringObject is an immutable sequence of UTF-16 code units. All indices the
// runtime exposes (lastIndex, capture registers, match positions) are offsets
// into this sequence, never byte offsets into the Go string.
type StringObject struct {
	Object
	value string
	units []uint16
}

// NewString creates a string value from a Go string.
func NewString(value string) Value {
	return Value{typ: TypeString, obj: unsafe.Pointer(&StringObject{
		value: value,
		units: utf16.Encode([]rune(value)),
	})}
}

// NewStringFromUnits creates a string value from raw UTF-16 code units.
// Unpaired surrogates are preserved in the unit slice; the cached Go string
// renders them as replacement characters.
func NewStringFromUnits(units []uint16) Value {
	owned := make([]uint16, len(units))
	copy(owned, units)
	return Value{typ: TypeString, obj: unsafe.Pointer(&StringObject{
		value: string(utf16.Decode(owned)),
		units: owned,
	})}
}

// Length returns the number of UTF-16 code units.
func (s *StringObject) Length() int {
	return len(s.units)
}

// CharCodeAt returns the code unit at the given index. Index must be in range.
func (s *StringObject) CharCodeAt(index int) uint16 {
	return s.units[index]
}

// Units returns the backing code units. Callers must not mutate the slice.
func (s *StringObject) Units() []uint16 {
	return s.units
}

// Substring returns the [start, end) code-unit slice as a new string value.
func (s *StringObject) Substring(start, end int) Value {
	if start < 0 {
		start = 0
	}
	if end > len(s.units) {
		end = len(s.units)
	}
	if start >= end {
		return NewString("")
	}
	return NewStringFromUnits(s.units[start:end])
}

func (s *StringObject) String() string {
	return s.value
}
