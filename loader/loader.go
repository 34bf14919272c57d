// Package loader provides the firmware sections the MMU table is read from.
package loader

import (
	"fmt"
	"os"

	"github.com/go-errors/errors"
	log "github.com/sirupsen/logrus"
)

// Section is one contiguous piece of a firmware image and the address it is
// loaded at.
type Section struct {
	Name        string
	LoadAddress uint32
	Data        []byte
}

func NewSection(name string, loadAddress uint32, data []byte) *Section {
	return &Section{Name: name, LoadAddress: loadAddress, Data: data}
}

// Contains reports whether [addr, addr+size) lies inside the section.
func (s *Section) Contains(addr uint32, size uint64) bool {
	if addr < s.LoadAddress {
		return false
	}
	return uint64(addr-s.LoadAddress)+size <= uint64(len(s.Data))
}

func (s *Section) String() string {
	return fmt.Sprintf("%s@0x%08x (0x%x bytes)", s.Name, s.LoadAddress, len(s.Data))
}

// LoadRaw reads a raw section dump, e.g. an extracted MAIN image.
func LoadRaw(path, name string, loadAddress uint32) (*Section, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}
	if uint64(loadAddress)+uint64(len(data)) > 1<<32 {
		return nil, errors.Errorf("section %s of 0x%x bytes at 0x%08x exceeds the 32-bit address space", name, len(data), loadAddress)
	}
	log.WithFields(log.Fields{"path": path, "name": name, "load_address": fmt.Sprintf("0x%x", loadAddress), "size": len(data)}).Debug("Loaded raw section")
	return NewSection(name, loadAddress, data), nil
}
