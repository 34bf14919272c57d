package elf

import (
	"debug/elf"
	"fmt"
	"io"

	"github.com/go-errors/errors"
	ds "github.com/ranmrdrakono/mmutable/data_structures"
	"github.com/ranmrdrakono/mmutable/loader"
	log "github.com/sirupsen/logrus"
)

// Magic is the ELF file identification prefix.
var Magic = []byte(elf.ELFMAG)

const (
	STT_NOTYPE  = 0
	STT_OBJECT  = 1
	STT_FUNC    = 2
	STT_SECTION = 3
	STT_FILE    = 4
	STT_COMMON  = 5
	STT_TLS     = 6
)

func elfSymbolTypeToSymbolType(elfsymbol uint) ds.SymbolType {
	switch elfsymbol & 0xf {
	case STT_OBJECT, STT_COMMON, STT_NOTYPE:
		return ds.DATA
	case STT_FUNC:
		return ds.FUNC
	case STT_FILE:
		return ds.FILE
	case STT_TLS:
		return ds.THREADLOCAL
	case STT_SECTION:
		return ds.SECTION
	}
	log.WithFields(log.Fields{"elfsymbol": elfsymbol & 0xf}).Info("Failed to Interpret Symbol")
	return ds.UNKNOWN
}

// GetSections returns one section per loadable program header with file content.
func GetSections(e *elf.File) ([]*loader.Section, error) {
	var res []*loader.Section
	for i, prog := range e.Progs {
		hdr := prog.ProgHeader
		if hdr.Type != elf.PT_LOAD || hdr.Filesz == 0 {
			continue
		}
		if hdr.Vaddr+hdr.Filesz > 1<<32 {
			return nil, errors.Errorf("segment %d at 0x%x does not fit a 32-bit address space", i, hdr.Vaddr)
		}
		data := make([]byte, hdr.Filesz)
		if _, err := io.ReadFull(prog.Open(), data); err != nil {
			return nil, errors.Wrap(err, 0)
		}
		name := fmt.Sprintf("LOAD%d", i)
		res = append(res, loader.NewSection(name, uint32(hdr.Vaddr), data))
		log.WithFields(log.Fields{"name": name, "vaddr": fmt.Sprintf("0x%x", hdr.Vaddr), "size": hdr.Filesz}).Debug("ELF segment")
	}
	return res, nil
}

// GetSymbols returns the symbol table keyed by name. Images without symbols
// yield an empty table.
func GetSymbols(e *elf.File) map[string]*ds.Symbol {
	res := make(map[string]*ds.Symbol)
	symbols, err := e.Symbols()
	if err != nil {
		log.WithFields(log.Fields{"error": err}).Info("Failed to Parse Symbols")
		return res
	}
	for _, sym := range symbols {
		if sym.Name == "" {
			continue
		}
		res[sym.Name] = ds.NewSymbol(sym.Name, sym.Value, sym.Size, elfSymbolTypeToSymbolType(uint(sym.Info)))
	}
	return res
}

// SectionFor returns the section holding size bytes at addr.
func SectionFor(sections []*loader.Section, addr uint32, size uint64) (*loader.Section, error) {
	for _, s := range sections {
		if s.Contains(addr, size) {
			return s, nil
		}
	}
	return nil, errors.Errorf("no loaded segment contains 0x%08x", addr)
}

// Load opens an ELF image and returns its sections and symbols.
func Load(r io.ReaderAt) ([]*loader.Section, map[string]*ds.Symbol, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, nil, errors.Wrap(err, 0)
	}
	defer f.Close()
	sections, err := GetSections(f)
	if err != nil {
		return nil, nil, err
	}
	return sections, GetSymbols(f), nil
}
