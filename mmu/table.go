package mmu

import (
	"github.com/go-errors/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultSlots is the number of entries in the boot MMU table of the
// observed hardware layout.
const DefaultSlots = 0x1B

// ParseTable decodes slots consecutive entries starting at tableAddress.
// data is the image section loaded at loadAddress. Entry i gets priority i.
// Any undecodable entry fails the whole table.
func ParseTable(data []byte, loadAddress, tableAddress uint32, slots int) ([]*Descriptor, error) {
	if slots < 0 {
		return nil, errors.Errorf("negative slot count %d", slots)
	}
	if tableAddress < loadAddress {
		return nil, errors.Errorf("%w: table 0x%08x below load address 0x%08x", ErrTableOutOfBounds, tableAddress, loadAddress)
	}
	if uint64(slots) > uint64(len(data))/EntrySize {
		return nil, errors.Errorf("%w: %d slots exceed image of 0x%x bytes", ErrTableOutOfBounds, slots, len(data))
	}
	offset := uint64(tableAddress - loadAddress)
	end := offset + uint64(slots)*EntrySize
	if end > uint64(len(data)) {
		return nil, errors.Errorf("%w: table [0x%x, 0x%x) exceeds image of 0x%x bytes", ErrTableOutOfBounds, offset, end, len(data))
	}

	entries := make([]*Descriptor, 0, slots)
	for slot := 0; slot < slots; slot++ {
		start := offset + uint64(slot)*EntrySize
		entry, err := Decode(slot, data[start:start+EntrySize])
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	log.WithFields(log.Fields{"table": hex(uint64(tableAddress)), "entries": len(entries)}).Debug("Parsed MMU table")
	return entries, nil
}

// FallbackTable is the hand-written table for images whose table cannot be
// located: one identity-mapped, fully accessible RAM entry at 0x40000000.
func FallbackTable() []*Descriptor {
	const base, size = 0x40000000, 0x08000000
	entry, err := NewDescriptor(0, base, base, base+size, 0b11<<shiftAP)
	if err != nil {
		panic(err)
	}
	return []*Descriptor{entry}
}
