package data_structures

import (
	"fmt"
)

type PageFlags uint

const (
	X PageFlags = 1
	R PageFlags = 2
	W PageFlags = 4
)

func (f PageFlags) String() string {
	res := []byte("---")
	if f&R != 0 {
		res[0] = 'r'
	}
	if f&W != 0 {
		res[1] = 'w'
	}
	if f&X != 0 {
		res[2] = 'x'
	}
	return string(res)
}

// MappedRegion is one named region of the emulated address space. Data is
// optional initial content, copied to the start of the region.
type MappedRegion struct {
	Name  string
	Data  []byte
	Flags PageFlags
	Range Range
}

func NewMappedRegion(name string, data []byte, flags PageFlags, rng Range) *MappedRegion {
	return &MappedRegion{Name: name, Data: data, Flags: flags, Range: rng}
}

func (s *MappedRegion) String() string {
	return fmt.Sprintf("%s [0x%08x, 0x%08x] %v", s.Name, s.Range.From, s.Range.To, s.Flags)
}
