// Package mmu decodes first-level "section" descriptors of the boot MMU table
// found in baseband firmware images and consolidates them into a flat,
// non-overlapping list of address ranges with the permissions the hardware
// would apply.
package mmu

import (
	"encoding/binary"
	"fmt"

	"github.com/go-errors/errors"
	ds "github.com/ranmrdrakono/mmutable/data_structures"
	log "github.com/sirupsen/logrus"
)

// EntrySize is the size in bytes of one table record: virt_base, phys_base,
// phys_end and flags, each a little-endian uint32.
const EntrySize = 0x10

// Section descriptor bit positions.
const (
	flagsTypeMask = 0b11
	bitB          = 2
	bitC          = 3
	bitXN         = 4
	shiftAP       = 10
	shiftTEX      = 12
	bitAPX        = 15
	bitS          = 16
	bitNG         = 17
	bitReserved   = 18
	bitNS         = 19
)

// Access is a read/write pair for one privilege level.
type Access struct {
	Read, Write bool
}

type permissions struct {
	priv, unpriv Access
}

// apxApLookup is indexed by [APX][AP].
var apxApLookup = [2][4]permissions{
	// APX = 0
	{
		{Access{false, false}, Access{false, false}},
		{Access{true, true}, Access{false, false}},
		{Access{true, true}, Access{true, false}},
		{Access{true, true}, Access{true, true}},
	},
	// APX = 1
	{
		// reserved encoding, see Descriptor.Reserved
		{Access{false, false}, Access{false, false}},
		{Access{true, false}, Access{false, false}},
		{Access{true, false}, Access{true, false}},
		{Access{true, false}, Access{true, false}},
	},
}

var accessNames = [8]string{"NA", "P_RW", "P_RW/U_RO", "RW", "RESV", "P_RO/U_NA", "RO", "RESV"}

// Descriptor is one decoded section entry. Priority is the table slot; later
// slots override earlier ones where they overlap.
type Descriptor struct {
	Priority int

	VirtBase uint32
	PhysBase uint32
	PhysEnd  uint32
	Flags    uint32

	NS, NG, S bool
	APX, AP   uint8
	TEX       uint8
	XN        bool
	C, B      bool

	Executable   bool
	Privileged   Access
	Unprivileged Access
}

func bit(flags uint32, pos uint) bool {
	return (flags>>pos)&1 == 1
}

// NewDescriptor validates flags and decodes the attribute bits of one entry.
func NewDescriptor(priority int, virtBase, physBase, physEnd, flags uint32) (*Descriptor, error) {
	if t := flags & flagsTypeMask; t != 0 && t != 1 {
		return nil, wrap(&DescriptorError{Kind: ErrInvalidDescriptorType, Slot: priority, Flags: flags})
	}
	if bit(flags, bitReserved) {
		return nil, wrap(&DescriptorError{Kind: ErrReservedBitSet, Slot: priority, Flags: flags})
	}

	d := &Descriptor{
		Priority: priority,
		VirtBase: virtBase,
		PhysBase: physBase,
		PhysEnd:  physEnd,
		Flags:    flags,
		NS:       bit(flags, bitNS),
		NG:       bit(flags, bitNG),
		S:        bit(flags, bitS),
		TEX:      uint8((flags >> shiftTEX) & 0b111),
		XN:       bit(flags, bitXN),
		C:        bit(flags, bitC),
		B:        bit(flags, bitB),
	}
	if bit(flags, bitAPX) {
		d.APX = 1
	}
	d.AP = uint8((flags >> shiftAP) & 0b11)
	d.Executable = !d.XN

	perm := apxApLookup[d.APX][d.AP]
	d.Privileged = perm.priv
	d.Unprivileged = perm.unpriv

	if d.Reserved() {
		log.WithFields(log.Fields{"slot": priority, "flags": hex(uint64(flags))}).Warn("MMU entry uses reserved APX/AP encoding")
	}
	log.WithFields(log.Fields{
		"slot":  priority,
		"virt":  hex(uint64(virtBase)),
		"phys":  hex(uint64(physBase)),
		"end":   hex(uint64(physEnd)),
		"flags": hex(uint64(flags)),
	}).Debug("Decoded MMU entry")
	return d, nil
}

// Decode reads one EntrySize record from raw.
func Decode(priority int, raw []byte) (*Descriptor, error) {
	if len(raw) < EntrySize {
		return nil, errors.Errorf("short mmu entry: %d bytes", len(raw))
	}
	return NewDescriptor(priority,
		binary.LittleEndian.Uint32(raw[0:]),
		binary.LittleEndian.Uint32(raw[4:]),
		binary.LittleEndian.Uint32(raw[8:]),
		binary.LittleEndian.Uint32(raw[12:]),
	)
}

// Reserved reports the APX=1, AP=0 combination, which the architecture leaves undefined.
func (d *Descriptor) Reserved() bool {
	return d.APX == 1 && d.AP == 0
}

// Size is phys_end - phys_base, or zero for an empty or inverted entry.
func (d *Descriptor) Size() uint64 {
	if d.PhysEnd <= d.PhysBase {
		return 0
	}
	return uint64(d.PhysEnd - d.PhysBase)
}

func (d *Descriptor) VirtStart() uint64 {
	return uint64(d.VirtBase)
}

// VirtEnd is the last virtual address covered, inclusive. Meaningless when
// Size is zero.
func (d *Descriptor) VirtEnd() uint64 {
	return uint64(d.VirtBase) + d.Size() - 1
}

// PageFlags returns the flags for the requested privilege level.
func (d *Descriptor) PageFlags(privileged bool) ds.PageFlags {
	acc := d.Unprivileged
	if privileged {
		acc = d.Privileged
	}
	flags := ds.PageFlags(0)
	if acc.Read {
		flags |= ds.R
	}
	if acc.Write {
		flags |= ds.W
	}
	if d.Executable {
		flags |= ds.X
	}
	return flags
}

// RWX renders the permissions of one privilege level as "rwx", "r-x", "---", ...
func (d *Descriptor) RWX(privileged bool) string {
	return d.PageFlags(privileged).String()
}

func (d *Descriptor) AccessName() string {
	return accessNames[d.APX<<2|d.AP]
}

func (d *Descriptor) String() string {
	return fmt.Sprintf("<MMUEntry [%08x, %08x] phys_base=%08x priv_perm=%s>",
		d.VirtStart(), d.VirtEnd(), d.PhysBase, d.RWX(true))
}

func hex(val uint64) string {
	return fmt.Sprintf("0x%x", val)
}
