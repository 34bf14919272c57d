package arch

import (
	uc "github.com/unicorn-engine/unicorn/bindings/go/unicorn"
)

type Arch interface {
	Name() string
	ToUnicornArchDescription() int // ARM? ARM64?
	ToUnicornModeDescription() int // endianness, ARM/THUMB
}

// ArchCortexA55 is the core of the exy5400 modem.
type ArchCortexA55 struct{}

func (s *ArchCortexA55) Name() string {
	return "cortex-a55"
}

func (s *ArchCortexA55) ToUnicornArchDescription() int {
	return uc.ARCH_ARM64
}

func (s *ArchCortexA55) ToUnicornModeDescription() int {
	return uc.MODE_LITTLE_ENDIAN | uc.MODE_ARM
}
