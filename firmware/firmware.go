// Package firmware locates the boot MMU table of a modem image and works
// out which SoC the image was built for.
package firmware

import (
	"bytes"
	"fmt"

	"github.com/go-errors/errors"
	"github.com/ranmrdrakono/mmutable/config"
	"github.com/ranmrdrakono/mmutable/loader"
	loader_elf "github.com/ranmrdrakono/mmutable/loader/elf"
	"github.com/ranmrdrakono/mmutable/mmu"
	"github.com/ranmrdrakono/mmutable/soc"
	log "github.com/sirupsen/logrus"
)

// FallbackDate is the build date reported for images mapped with the
// fallback table. Their build string carries no usable date.
const FallbackDate = 20451201

// Image is a decoded MMU table and the section it was read from.
type Image struct {
	Section *loader.Section
	Entries []*mmu.Descriptor
}

// LoadTable reads a raw MAIN section or an ELF image from path and decodes
// its MMU table.
func LoadTable(cfg config.Config, path string) (*Image, error) {
	raw, err := loader.LoadRaw(path, "MAIN", cfg.LoadAddress)
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(raw.Data, loader_elf.Magic) {
		return fromELF(cfg, raw.Data)
	}
	return fromRaw(cfg, raw)
}

func fromRaw(cfg config.Config, section *loader.Section) (*Image, error) {
	if cfg.FallbackTable {
		return &Image{Section: section, Entries: mmu.FallbackTable()}, nil
	}
	if cfg.TableAddress == 0 {
		return nil, errors.Errorf("raw images need a table address")
	}
	entries, err := mmu.ParseTable(section.Data, section.LoadAddress, cfg.TableAddress, cfg.Slots)
	if err != nil {
		return nil, err
	}
	return &Image{Section: section, Entries: entries}, nil
}

func fromELF(cfg config.Config, data []byte) (*Image, error) {
	sections, symbols, err := loader_elf.Load(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if len(sections) == 0 {
		return nil, errors.Errorf("ELF image has no loadable segments")
	}
	if cfg.FallbackTable {
		return &Image{Section: sections[0], Entries: mmu.FallbackTable()}, nil
	}

	table := cfg.TableAddress
	if table == 0 {
		sym, ok := symbols[cfg.TableSymbol]
		if !ok {
			log.WithFields(log.Fields{"symbol": cfg.TableSymbol}).Error("Unable to find MMU table in modem binary")
			return nil, errors.Errorf("symbol %s not found", cfg.TableSymbol)
		}
		table = uint32(sym.Addr)
	}
	if uint64(cfg.Slots) > (1<<32)/mmu.EntrySize {
		return nil, errors.Errorf("%w: %d slots", mmu.ErrTableOutOfBounds, cfg.Slots)
	}
	section, err := loader_elf.SectionFor(sections, table, uint64(cfg.Slots)*mmu.EntrySize)
	if err != nil {
		return nil, err
	}
	entries, err := mmu.ParseTable(section.Data, section.LoadAddress, table, cfg.Slots)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"section": section.Name, "table": fmt.Sprintf("0x%08x", table)}).Info("MMU table")
	return &Image{Section: section, Entries: entries}, nil
}

// IdentifySoC returns the SoC named by cfg, or guesses it from the section.
// Images mapped with the fallback table are S5123AP builds.
func IdentifySoC(cfg config.Config, section *loader.Section) (*soc.SoC, soc.Version, error) {
	name := cfg.SoC
	if name == "" && cfg.FallbackTable {
		log.WithFields(log.Fields{"soc": soc.S5123AP.Name}).Info("SoC (fallback table)")
		return soc.S5123AP, soc.Version{Name: soc.S5123AP.Name, Date: FallbackDate}, nil
	}
	if name == "" {
		return soc.Identify(section.Data)
	}

	s, err := soc.Lookup(name)
	if err != nil {
		return nil, soc.Version{Name: name}, err
	}
	v := soc.Version{Name: s.Name}
	if cfg.FallbackTable {
		v.Date = FallbackDate
	} else if guessed, err := soc.Guess(section.Data); err == nil && guessed.Name == s.Name {
		v.Date = guessed.Date
	}
	log.WithFields(log.Fields{"soc": s.Name, "date": v.Date}).Info("SoC (forced)")
	return s, v, nil
}
