package mmu

import (
	"fmt"

	"github.com/go-errors/errors"
)

var (
	// ErrInvalidDescriptorType is returned when the two low flag bits are neither 0 nor 1.
	ErrInvalidDescriptorType = errors.Errorf("invalid descriptor type")
	// ErrReservedBitSet is returned when bit 18 of the flags is set.
	ErrReservedBitSet = errors.Errorf("reserved bit set")
	// ErrTableOutOfBounds is returned when the table does not fit in the image buffer.
	ErrTableOutOfBounds = errors.Errorf("mmu table out of bounds")
)

// DescriptorError reports which table slot failed to decode and why.
type DescriptorError struct {
	Kind  error
	Slot  int
	Flags uint32
}

func (e *DescriptorError) Error() string {
	return fmt.Sprintf("mmu entry %d (flags 0x%08x): %v", e.Slot, e.Flags, e.Kind)
}

func (e *DescriptorError) Unwrap() error {
	return e.Kind
}

func wrap(err error) error {
	if err != nil {
		return errors.Wrap(err, 1)
	}
	return nil
}
